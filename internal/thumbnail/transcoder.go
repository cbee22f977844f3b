/*
Copyright 2014 The Camlistore Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package thumbnail implements the derived-preview generation of spec
// §4.7: resizing images with golang.org/x/image/draw, extracting a
// representative video frame through an external Transcoder, and
// caching the results under a byte budget with
// github.com/hashicorp/golang-lru/v2.
package thumbnail

import (
	"bytes"
	"fmt"
	"os/exec"
)

// Transcoder extracts a single representative still frame from a
// video file. Command mirrors Perkeep's pkg/video/thumbnail.
// Thumbnailer interface, adapted from an HTTP source URI to a local
// file path since this module reads from its own blob store.
type Transcoder interface {
	Command(path string) (prog string, args []string)
}

// FFmpegTranscoder shells out to ffmpeg to pull the first frame,
// grounded on Perkeep's FFmpegThumbnailer.Command.
type FFmpegTranscoder struct{}

func (FFmpegTranscoder) Command(path string) (string, []string) {
	return "ffmpeg", []string{
		"-seekable", "1",
		"-i", path,
		"-vf", "thumbnail",
		"-frames:v", "1",
		"-f", "image2pipe",
		"-c:v", "png",
		"pipe:1",
	}
}

// ExtractFrame runs the Transcoder's command and returns the decoded
// still frame's raw bytes (PNG-encoded, per FFmpegTranscoder.Command).
func ExtractFrame(tc Transcoder, path string) ([]byte, error) {
	prog, args := tc.Command(path)
	cmd := exec.Command(prog, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("thumbnail: transcode %s: %w: %s", path, err, stderr.String())
	}
	return out.Bytes(), nil
}
