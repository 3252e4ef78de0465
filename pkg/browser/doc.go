// Package browser drives Chromium through Playwright for the browsing engine.
//
// # Architecture
//
// The package is built around two types:
//
//  1. Launcher: starts the Playwright driver once and launches a fresh
//     browser per client profile
//  2. Session: one browser, context and page, with the primitive actions the
//     planner can request
//
// # Element addressing
//
// Observe tags every visible interactive element with a numeric
// data-serpwalk-id attribute and reports those ids to the planner. Click and
// Type address elements by that id, so ids are only valid until the next
// Observe call.
//
// # Usage
//
//	launcher := browser.NewLauncher(browser.Options{Headless: true, Install: true}, logger)
//	defer launcher.Shutdown()
//
//	s, err := launcher.Launch(ctx, p)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if err := s.Navigate(ctx, "https://www.google.com"); err != nil {
//	    return err
//	}
//	obs, err := s.Observe(ctx)
//	fmt.Println(obs.Render(50))
package browser
