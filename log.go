package wsboot

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// LogBanner prints the header of a stage.
func LogBanner(text string) {
	rule := strings.Repeat("─", len([]rune(text))+4)
	fmt.Println(color.CyanString(rule))
	fmt.Println(color.New(color.FgCyan, color.Bold).Sprintf("  %s", text))
	fmt.Println(color.CyanString(rule))
}

// LogStep prints a top level step of a task.
func LogStep(text string) {
	fmt.Println(
		color.BlueString(" •"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}

// LogDetail prints additional info about the last step.
func LogDetail(text string) {
	fmt.Println(
		color.New(color.FgHiBlack).Sprint("   └"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}

func LogWarn(text string) {
	fmt.Println(
		color.YellowString("   !"),
		color.YellowString(text),
	)
}

func LogError(text string) {
	color.Red("   ✘ %s", text)
}

func LogSuccess(text string) {
	color.Green("   ✔ %s", text)
}

// fancy-ish log of a command.
func logcommand(text string) {
	fmt.Println(
		color.MagentaString(" ⌘"),
		color.New(color.Bold).Sprint(text),
	)
}
