package api

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"net/http"

	"github.com/fosdem/vrsink/lib/video"
)

type MediaResponseType string

const (
	JPEG MediaResponseType = "jpeg"
	PNG  MediaResponseType = "png"
)

// @Summary	fetch the frame the sink currently shows
// @Router		/api/media/sink [get]
// @Router		/api/media/sink/{format} [get]
// @Tags		media
// @Param		format	path	MediaResponseType	false	"The image type to return"
// @Success	200
// @Failure	400	{string}	string	"The requested image format is not supported"
// @Failure	424	{string}	string	"The sink does not show a frame yet"
// @Failure	500	{string}	string	"The API does not know how to convert this buffer to an image"
// @Produce	jpeg
func (a *Api) handleMediaSink(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "Invalid method, only GET supported", http.StatusMethodNotAllowed)
		return
	}
	frame := a.sink.DisplayedFrame()
	if frame == nil {
		http.Error(w, "No frame returned", http.StatusFailedDependency)
		return
	}
	defer frame.Unref()

	img, err := video.ToImage(frame)
	if err != nil {
		http.Error(w, fmt.Sprintf("Unhandled frame type: %s", err), http.StatusInternalServerError)
		return
	}
	encodeImage(w, img, req.PathValue("format"))
}

// @Summary	fetch or replace the picture of an image source
// @Router		/api/media/source [get]
// @Router		/api/media/source [put]
// @Router		/api/media/source/{format} [get]
// @Tags		media
// @Param		format	path	MediaResponseType	false	"The image type to return"
// @Success	200
// @Failure	400	{string}	string	"The uploaded file is not an image"
// @Failure	404	{string}	string	"The configured source is not an image source"
// @Produce	jpeg
func (a *Api) handleMediaSource(w http.ResponseWriter, req *http.Request) {
	if a.ImageSource == nil {
		http.Error(w, "not a valid image source", http.StatusNotFound)
		return
	}

	switch req.Method {
	case http.MethodGet:
		encodeImage(w, a.ImageSource.Image(), req.PathValue("format"))
	case http.MethodPut:
		newImage, ftype, err := image.Decode(req.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("not a valid image: %s", err), http.StatusBadRequest)
			return
		}
		log.Printf("Image source was updated with new %s image (%dx%d)\n", ftype, newImage.Bounds().Dx(), newImage.Bounds().Dy())
		a.ImageSource.SetImage(newImage)
		writeOK(w)
	default:
		http.Error(w, "Invalid method, only GET and PUT supported", http.StatusMethodNotAllowed)
	}
}

func encodeImage(w http.ResponseWriter, img image.Image, format string) {
	switch MediaResponseType(format) {
	case "", JPEG:
		w.Header().Set("Content-Type", "image/jpeg")
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: 80}); err != nil {
			http.Error(w, "Could not jpeg encode this frame", http.StatusInternalServerError)
		}
	case PNG:
		w.Header().Set("Content-Type", "image/png")
		if err := png.Encode(w, img); err != nil {
			http.Error(w, "Could not png encode this frame", http.StatusInternalServerError)
		}
	default:
		http.Error(w, "Unsupported format", http.StatusBadRequest)
	}
}
