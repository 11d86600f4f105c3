// Package tui provides the terminal user interface for the maestro run
// command.
//
// This package contains a read-only dashboard that displays coordination
// state in real-time. It shows:
//   - Registered agents with their status and current task
//   - The task queue with priorities and dependencies
//   - An activity log of recent lifecycle events
//
// The dashboard is read-only. Users can only quit with 'q' or Ctrl+C.
//
// Usage:
//
//	program, app := tui.NewDashboardProgram()
//	go program.Run()
//
//	// Send state updates
//	program.Send(tui.SnapshotMsg{Snapshot: coord.Status()})
//
//	// Send log messages
//	program.Send(tui.ActivityMsg{
//	    Timestamp: time.Now(),
//	    EventType: "task_assigned",
//	    Message:   "task 42 -> agent backend-1",
//	})
//
//	// Signal completion
//	program.Send(tui.DoneMsg{Err: nil})
package tui
