// Package services defines the error taxonomy and context plumbing shared by
// the external-service clients and the orchestration engine.
//
// Sentinel errors tag failures with a classification (validation,
// configuration, timeout, transient, external) that the activity invoker and
// engine consult when deciding whether a retry makes sense. Context helpers
// carry instance, stage, and correlation identifiers so structured logging
// stays consistent without threading extra parameters everywhere.
package services
