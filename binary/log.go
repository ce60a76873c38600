package binary

import (
	"fmt"

	"github.com/fatih/color"
)

func logstep(text string) {
	fmt.Println(
		color.BlueString(" •"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}

func logdetail(text string) {
	fmt.Println(
		color.New(color.FgHiBlack).Sprint("   └"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}

func logwarn(text string) {
	fmt.Println(
		color.YellowString("   !"),
		color.YellowString(text),
	)
}

// logfailure prints the category code of the error next to its message.
func logfailure(err error) {
	color.Red("   ✘ [%s] %s", Category(err), err)
}
