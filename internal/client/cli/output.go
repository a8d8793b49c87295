package cli

import "fmt"

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *App) printErr(format string, args ...any) {
	fmt.Fprintln(a.out, errStyle.Render(fmt.Sprintf(format, args...)))
}

func (a *App) printOK(format string, args ...any) {
	fmt.Fprintln(a.out, okStyle.Render(fmt.Sprintf(format, args...)))
}
