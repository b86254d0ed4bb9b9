package media

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/dmitrijs2005/chatmedia/internal/common"
)

// ScaleToFit downscales an image to fit within width x height, preserving
// aspect ratio. Used as the local fallback when no repository-side thumbnail
// exists for an image attachment. Images already within bounds come back
// re-encoded but unscaled.
func ScaleToFit(data []byte, width, height int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode image: %v", common.ErrResolutionFailure, err)
	}

	thumb := imaging.Fit(img, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: encode thumbnail: %v", common.ErrResolutionFailure, err)
	}
	return buf.Bytes(), nil
}
