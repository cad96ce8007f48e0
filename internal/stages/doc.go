// Package stages implements the five video-processing stage activities
// and the pipeline definition the engine walks. Each activity takes its
// service clients by injection; a missing client switches the stage to a
// deterministic simulated result.
package stages
