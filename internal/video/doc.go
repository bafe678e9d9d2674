// Package video decodes video files into an ordered sequence of frames.
//
// A Source hands out frames one at a time, in decode order, and reports
// io.EOF after the last frame. Three sources are provided:
//
//   - FFmpegSource: any container/codec ffmpeg can decode, streamed as raw
//     RGB24 frames from an ffmpeg subprocess
//   - StillSource: a list of still images treated as consecutive frames, so a
//     single photo behaves as a one-frame video
//   - MemorySource: frames already in memory
//
// Sources are not safe for concurrent use. Frame decoding is inherently
// ordered and callers consume it from a single goroutine.
package video
