// Package journal records dispatched events in a SQLite database.
//
// Register a Recorder like any other listener. Where it sits in the listener
// order decides what it sees: placed last, it stores the event as the
// earlier listeners left it.
//
//	j, err := journal.Open(ctx, "epicenter.db")
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
//
//	dispatch.ListenAsync(d, journal.Recorder[OrderPlaced](j))
package journal
