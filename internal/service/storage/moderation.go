// internal/service/storage/moderation.go
package storage

import (
	"context"
	"fmt"

	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type RekognitionAPI interface {
	DetectModerationLabels(ctx context.Context, params *rekognition.DetectModerationLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error)
}

// Disaster photos legitimately show injuries, so only sexual and hate
// content is blocked.
var blockedCategories = map[string]bool{
	"Explicit Nudity": true,
	"Explicit":        true,
	"Hate Symbols":    true,
}

// RekognitionModerator screens images with DetectModerationLabels.
type RekognitionModerator struct {
	client        RekognitionAPI
	minConfidence float32
}

func NewRekognitionModerator(cfg aws.Config) *RekognitionModerator {
	return &RekognitionModerator{client: rekognition.NewFromConfig(cfg), minConfidence: 80}
}

func (m *RekognitionModerator) Check(ctx context.Context, data []byte) error {
	out, err := m.client.DetectModerationLabels(ctx, &rekognition.DetectModerationLabelsInput{
		Image:         &types.Image{Bytes: data},
		MinConfidence: aws.Float32(m.minConfidence),
	})
	if err != nil {
		return fmt.Errorf("image moderation failed: %w", err)
	}

	for _, l := range out.ModerationLabels {
		if blockedCategories[aws.ToString(l.Name)] || blockedCategories[aws.ToString(l.ParentName)] {
			return xerrors.Invalid("file", "Image was rejected by content moderation")
		}
	}
	return nil
}
