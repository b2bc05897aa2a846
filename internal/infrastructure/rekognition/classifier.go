// Package rekognition labels food images with AWS Rekognition DetectLabels.
package rekognition

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/foodlens/backend/internal/domain"
)

// maxImageBytes is the Rekognition limit for inline image bytes
const maxImageBytes = 5 * 1024 * 1024

// DetectLabelsAPI is the part of the Rekognition client the classifier needs
type DetectLabelsAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// Options configures the classifier
type Options struct {
	MaxLabels         int32
	MinConfidence     float32 // percent, 0-100
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Classifier implements domain.Classifier on top of Rekognition
type Classifier struct {
	api         DetectLabelsAPI
	opts        Options
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

// New creates a classifier from AWS default credentials for region
func New(ctx context.Context, region string, opts Options, logger *zap.Logger) (*Classifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return NewWithAPI(rekognition.NewFromConfig(cfg), opts, logger), nil
}

// NewWithAPI creates a classifier over an existing DetectLabels client
func NewWithAPI(api DetectLabelsAPI, opts Options, logger *zap.Logger) *Classifier {
	if opts.MaxLabels <= 0 {
		opts.MaxLabels = 10
	}
	if opts.MinConfidence <= 0 {
		opts.MinConfidence = 30
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Classifier{
		api:         api,
		opts:        opts,
		rateLimiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		logger:      logger.With(zap.String("component", "REKOGNITION")),
	}
}

// Classify returns the labels Rekognition finds in image, confidences scaled to 0..1.
// Every failure wraps domain.ErrClassificationFailed.
func (c *Classifier) Classify(ctx context.Context, image []byte) ([]domain.Label, error) {
	if len(image) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrClassificationFailed)
	}
	if len(image) > maxImageBytes {
		return nil, fmt.Errorf("%w: image is %d bytes, limit %d", domain.ErrClassificationFailed, len(image), maxImageBytes)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrClassificationFailed, err)
	}

	start := time.Now()
	out, err := c.api.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(c.opts.MaxLabels),
		MinConfidence: aws.Float32(c.opts.MinConfidence),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Warn("DetectLabels timed out", zap.Duration("timeout", c.opts.Timeout))
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrClassificationFailed, err)
	}

	labels := toLabels(out.Labels)
	c.logger.Debug("DetectLabels",
		zap.Int("labels", len(labels)),
		zap.Duration("elapsed", time.Since(start)))
	return labels, nil
}

// toLabels converts Rekognition labels, dropping unnamed ones
func toLabels(in []types.Label) []domain.Label {
	labels := make([]domain.Label, 0, len(in))
	for _, l := range in {
		name := strings.TrimSpace(aws.ToString(l.Name))
		if name == "" {
			continue
		}
		labels = append(labels, domain.Label{
			Text:       name,
			Confidence: float64(aws.ToFloat32(l.Confidence)) / 100,
		})
	}
	return labels
}
