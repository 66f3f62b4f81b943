/*
Package runner drives instances of a hangar over time and reports the events
they produce.

A Runner applies a list of drives (a numeric delta added to one field of a
named instance) once per tick, each inside its own update scope. Every event
the hangar dispatches while the runner is active is handed to an
EventHandler, which decides how to present it.

# Key Components

  - Runner: the tick loop. It stops when its context is cancelled or after a
    fixed number of ticks.
  - EventHandler: decouples presentation from the loop.
  - TextHandler: colourised, human readable lines for a terminal.
  - JSONHandler: one JSON object per line for machines.
  - SignalManager: cancels the loop on SIGINT or SIGTERM.

# Usage

	r := runner.NewRunner(
		runner.WithEngine(h),
		runner.WithDrives(doc.Drive),
		runner.WithInterval(time.Second),
		runner.WithHandler(runner.NewTextHandler(os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
