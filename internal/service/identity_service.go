package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog/log"

	"github.com/gharsewa/estate_api/internal/config"
	"github.com/gharsewa/estate_api/internal/repository"
)

// faceMatchThreshold is the minimum similarity Rekognition must report for
// the faces on the two documents to count as the same person.
const faceMatchThreshold = 80.0

// IdentityService cross-checks the face on an applicant's government ID
// against the photo on their license document and stores the similarity
// score on the application for the reviewing admin. The check is advisory:
// a provider failure never blocks review.
type IdentityService struct {
	client  *rekognition.Client
	appRepo *repository.AgentApplicationRepository
}

// NewIdentityService constructs an IdentityService. Returns a disabled
// service (nil client) when AWS credentials are not configured, so local
// environments run without the check.
func NewIdentityService(ctx context.Context, cfg *config.AWSConfig, appRepo *repository.AgentApplicationRepository) (*IdentityService, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		log.Warn().Msg("AWS credentials not configured - document identity check disabled")
		return &IdentityService{appRepo: appRepo}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.RekognitionRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &IdentityService{
		client:  rekognition.NewFromConfig(awsCfg),
		appRepo: appRepo,
	}, nil
}

// Enabled reports whether the Rekognition client is configured.
func (s *IdentityService) Enabled() bool {
	return s.client != nil
}

// CheckApplicationDocuments downloads the application's ID and license
// documents, runs CompareFaces between them and records the similarity on
// the application. Errors are logged, not returned: the score is a review
// aid, never a gate.
func (s *IdentityService) CheckApplicationDocuments(ctx context.Context, applicationID int) {
	if s.client == nil {
		return
	}

	app, err := s.appRepo.GetByID(applicationID)
	if err != nil {
		log.Error().Err(err).Int("application_id", applicationID).Msg("Identity check: failed to load application")
		return
	}

	idDoc, err := s.download(ctx, app.IDDocumentURL)
	if err != nil {
		log.Error().Err(err).Int("application_id", applicationID).Msg("Identity check: failed to fetch ID document")
		return
	}
	licenseDoc, err := s.download(ctx, app.LicenseDocumentURL)
	if err != nil {
		log.Error().Err(err).Int("application_id", applicationID).Msg("Identity check: failed to fetch license document")
		return
	}

	score, err := s.compareFaces(ctx, idDoc, licenseDoc)
	if err != nil {
		log.Error().Err(err).Int("application_id", applicationID).Msg("Identity check: face comparison failed")
		return
	}

	if err := s.appRepo.SetDocumentMatchScore(applicationID, score); err != nil {
		log.Error().Err(err).Int("application_id", applicationID).Msg("Identity check: failed to store match score")
		return
	}

	log.Info().
		Int("application_id", applicationID).
		Float64("similarity", score).
		Msg("Document identity check completed")
}

// compareFaces runs Rekognition CompareFaces and reduces the result to a
// single similarity score. No match with faces detected scores 0.
func (s *IdentityService) compareFaces(ctx context.Context, sourceImage, targetImage []byte) (float64, error) {
	threshold := float32(faceMatchThreshold)
	out, err := s.client.CompareFaces(ctx, &rekognition.CompareFacesInput{
		SourceImage:         &types.Image{Bytes: sourceImage},
		TargetImage:         &types.Image{Bytes: targetImage},
		SimilarityThreshold: &threshold,
	})
	if err != nil {
		return 0, err
	}

	if len(out.FaceMatches) == 0 {
		return 0, nil
	}
	best := out.FaceMatches[0]
	if best.Similarity == nil {
		return 0, nil
	}
	return float64(*best.Similarity), nil
}

func (s *IdentityService) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
