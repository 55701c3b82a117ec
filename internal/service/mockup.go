package service

import (
	"ImageHub/internal/apperr"
	"ImageHub/internal/blob"
	"ImageHub/internal/generative"
	"ImageHub/internal/model"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

var ErrMockupsDisabled = fmt.Errorf("mockup generation is not configured: %w", apperr.ErrUpstream)

// MockupService генерирует мокап по исходному изображению и сохраняет результат в папку
// тем же путём, что и обычная загрузка.
type MockupService struct {
	provider generative.Provider
	images   *ImageService
	logger   *zap.SugaredLogger
}

// NewMockupService: provider == nil означает, что генерация выключена.
func NewMockupService(provider generative.Provider, images *ImageService, logger *zap.SugaredLogger) *MockupService {
	return &MockupService{provider: provider, images: images, logger: logger}
}

func (s *MockupService) Enabled() bool { return s.provider != nil }

// MockupInput — исходник и параметры генерации.
type MockupInput struct {
	SourceName string
	Source     []byte
	Prompt     string
	Color      string
}

func (in MockupInput) validate() error {
	err := validation.Errors{
		"prompt": validation.Validate(in.Prompt, validation.Length(0, 2000)),
		"color":  validation.Validate(in.Color, validation.Length(0, 64)),
	}.Filter()
	if err != nil {
		return apperr.Validation(err)
	}
	if strings.TrimSpace(in.Prompt) == "" && strings.TrimSpace(in.Color) == "" {
		return apperr.Validation(errors.New("prompt or color is required"))
	}
	if len(in.Source) == 0 {
		return apperr.Validation(errors.New("file is empty"))
	}
	if !strings.HasPrefix(http.DetectContentType(in.Source), "image/") {
		return apperr.Validation(ErrNotImage)
	}
	return nil
}

// BuildPrompt добавляет к запросу цветовую вариацию, если она задана.
func BuildPrompt(prompt, color string) string {
	prompt = strings.TrimSpace(prompt)
	color = strings.TrimSpace(color)
	switch {
	case color == "":
		return prompt
	case prompt == "":
		return fmt.Sprintf("Recolor the product to %s, keep the design and background unchanged.", color)
	default:
		return fmt.Sprintf("%s Color variation: %s.", prompt, color)
	}
}

// MockupName: mockup-<color>-<source>, без цвета — mockup-<source>.
func MockupName(color, source string) string {
	source = displayName(source)
	if strings.TrimSpace(color) == "" {
		return "mockup-" + source
	}
	return "mockup-" + blob.Slugify(color) + "-" + source
}

// Generate вызывает провайдера и сохраняет результат; при ошибке провайдера метаданные не создаются.
func (s *MockupService) Generate(ctx context.Context, folder *model.Folder, in MockupInput) (*model.Image, error) {
	if !s.Enabled() {
		return nil, ErrMockupsDisabled
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	res, err := s.provider.Generate(ctx, generative.Request{
		Image:       in.Source,
		ContentType: http.DetectContentType(in.Source),
		Prompt:      BuildPrompt(in.Prompt, in.Color),
	})
	if err != nil {
		s.logger.Warnw("mockup generation failed", "folder_id", folder.ID, "err", err)
		if !errors.Is(err, apperr.ErrUpstream) {
			err = apperr.Upstream("generate mockup", err)
		}
		return nil, err
	}
	return s.images.UploadBytes(ctx, folder, MockupName(in.Color, in.SourceName), res.ContentType, res.Image)
}
