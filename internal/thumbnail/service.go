/*
Copyright 2014 The Perkeep Authors

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

package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"tanuki/internal/assetserr"
)

// Kind names the derived size requested for an asset.
type Kind string

const (
	KindThumbnail Kind = "thumb"
	KindPreview   Kind = "preview"
	KindWide      Kind = "wide"
)

// Service generates and caches derived previews for stored assets
// (§4.7), reading the original from the blob store by path and
// falling back to a Transcoder for video sources.
type Service struct {
	cache      *Cache
	transcoder Transcoder
}

// NewService builds a Service over an already-constructed Cache.
func NewService(cache *Cache, tc Transcoder) *Service {
	if tc == nil {
		tc = FFmpegTranscoder{}
	}
	return &Service{cache: cache, transcoder: tc}
}

func cacheKey(assetID string, kind Kind) string {
	return assetID + ":" + string(kind)
}

// Get returns the derived preview for assetID at the given kind,
// generating and caching it on a miss. mediaType decides whether the
// source is decoded directly or routed through the Transcoder first.
func (s *Service) Get(assetID, path, mediaType string, kind Kind) ([]byte, error) {
	key := cacheKey(assetID, kind)
	if data, ok := s.cache.Get(key); ok {
		return data, nil
	}

	src, err := s.decodeSource(path, mediaType)
	if err != nil {
		return nil, err
	}

	var resized image.Image
	switch kind {
	case KindThumbnail:
		resized = Resize(src, ThumbnailWidth, ThumbnailHeight)
	case KindPreview:
		resized = Resize(src, PreviewWidth, PreviewHeight)
	case KindWide:
		resized = ResizeToHeight(src, WideThumbHeight)
	default:
		return nil, fmt.Errorf("thumbnail: unknown kind %q", kind)
	}

	data, err := EncodeJPEG(resized)
	if err != nil {
		return nil, err
	}
	s.cache.Put(key, data)
	return data, nil
}

// decodeSource returns the source image to resize. Non-image,
// non-video media types have no rendition (§4.7: "return not
// available"; §7: Unsupported), reported as assetserr.Unsupported
// rather than whatever raw error image.Decode would produce for bytes
// it was never meant to parse.
func (s *Service) decodeSource(path, mediaType string) (image.Image, error) {
	switch {
	case strings.HasPrefix(mediaType, "video/"):
		frame, err := ExtractFrame(s.transcoder, path)
		if err != nil {
			return nil, err
		}
		img, _, err := image.Decode(bytes.NewReader(frame))
		return img, err
	case strings.HasPrefix(mediaType, "image/"):
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		return img, err
	default:
		return nil, assetserr.Newf(assetserr.Unsupported, "no thumbnail rendition for media type %q", mediaType)
	}
}

// Invalidate drops every cached derivation of assetID, used when an
// asset's blob is replaced.
func (s *Service) Invalidate(assetID string) {
	for _, k := range []Kind{KindThumbnail, KindPreview, KindWide} {
		s.cache.Remove(cacheKey(assetID, k))
	}
}
