package service

import (
	"context"
	"errors"
	"fmt"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
)

// OCRService extracts handwritten text from images with the Cloud Vision
// document text detector.
type OCRService struct {
	client *vision.ImageAnnotatorClient
}

// NewOCRService creates an OCR service using ambient GCP credentials.
func NewOCRService(ctx context.Context) (*OCRService, error) {
	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &OCRService{client: client}, nil
}

// ExtractHandwrittenText runs handwriting-hinted document text detection over
// an image and returns the detected text. An image with no detectable text
// yields an empty string, not an error.
func (s *OCRService) ExtractHandwrittenText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", errors.New("empty image")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{
					LanguageHints: []string{"en-t-i0-handwrit"},
				},
			},
		},
	}

	resp, err := s.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", errors.New("vision returned no responses")
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return "", fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}
	if r0.FullTextAnnotation == nil {
		return "", nil
	}
	return r0.FullTextAnnotation.Text, nil
}

// Close releases the underlying client.
func (s *OCRService) Close() error {
	return s.client.Close()
}
