// Package tui provides terminal user interface components for jail.
//
// The sandbox picker lists jails grouped by owner and returns the chosen
// action:
//
//	result, err := tui.RunPicker(report.Sandboxes)
//	switch result.Action {
//	case tui.ActionEnter:
//	    // attach a shell to result.Name
//	case tui.ActionCode:
//	    // open the editor on result.Name
//	case tui.ActionStop:
//	    // stop result.Name
//	}
//
// Keys: enter (enter), c (code), s (stop), / (filter), q or esc (quit).
// Group headers are skipped during navigation.
package tui
