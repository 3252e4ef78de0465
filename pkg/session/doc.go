// Package session runs browsing sessions: an ordered list of search
// objectives, each carried out by an automation engine in a freshly opened
// browser with a randomized client profile.
//
// A Runner processes objectives strictly one at a time:
//
//	objective → profile → task text → engine → result → classified record
//
// Engine failures are isolated to the objective that caused them and become
// failed ExecutionRecords; the session always continues with the next
// objective. Between objectives the runner waits a random pacing delay, which
// is also the point where cancellation is observed.
//
// However the loop ends, the runner closes the open browser handle, computes
// the session duration and hands the State to a Persister. ReportWriter is the
// standard Persister and writes a JSON report plus an optional markdown summary:
//
//	writer := session.NewReportWriter(afero.NewOsFs(), "reports", true)
//	runner, err := session.NewRunner(eng, session.WithPersister(writer))
//	if err != nil {
//		return err
//	}
//	state, err := runner.Run(ctx, []string{"best hotels in murudeshwar"}, "rooms.murudeshwar.co.in")
//
// Run returns the State even when it also returns an error, so callers can
// report partial sessions.
package session
