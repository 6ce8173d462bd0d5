// Package trigger decides whether a pipeline run should start and supplies
// event sources feeding the engine.
//
// The Router evaluates incoming events against a policy (recognized event
// kinds plus a branch allow-list). It is pure and never fails: unrecognized
// events simply yield "do not run".
//
// The Watcher is a file-drop event source: it observes a spool directory for
// trigger-event JSON files, the local equivalent of a webhook receiver, and
// forwards decoded events on a channel.
package trigger
