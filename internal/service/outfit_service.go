package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"fashfolio/internal/featureflags"
	"fashfolio/internal/media"
	"fashfolio/internal/middleware"
	"fashfolio/internal/models"
	"fashfolio/internal/relay"
	"fashfolio/internal/repository"
)

// FlagAIEnrichment gates vision enrichment of new outfits.
const FlagAIEnrichment = "ai_enrichment"

// Listing scopes.
const (
	ScopeGlobal   = "global"
	ScopePersonal = "personal"
)

const (
	maxDescriptionLength = 2000
	maxTagLength         = 50
)

// Analyzer describes outfit photos.
type Analyzer interface {
	Enabled() bool
	Analyze(ctx context.Context, imageURL string) (*relay.OutfitAnalysis, error)
}

// Uploader stores outfit images.
type Uploader interface {
	Upload(ctx context.Context, ownerKey string, content []byte) (*media.Stored, error)
	Delete(ctx context.Context, key string) error
}

type OutfitService struct {
	outfits  repository.OutfitRepository
	feed     *FeedService
	media    Uploader
	analyzer Analyzer
	flags    *featureflags.Manager
}

type CreateOutfitInput struct {
	Actor       string
	ImageURL    string
	PublicID    string
	Season      string
	Mood        string
	Description string
	Items       models.OutfitItems
	Context     models.OutfitContext
	WearDate    *time.Time
	IsPublic    *bool
}

type ListOutfitsInput struct {
	Actor string
	Scope string
	// User restricts the listing to one owner.
	User   string
	Season string
	Mood   string
	Query  string
	Page   int
}

func NewOutfitService(
	outfits repository.OutfitRepository,
	feed *FeedService,
	uploader Uploader,
	analyzer Analyzer,
	flags *featureflags.Manager,
) *OutfitService {
	return &OutfitService{
		outfits:  outfits,
		feed:     feed,
		media:    uploader,
		analyzer: analyzer,
		flags:    flags,
	}
}

func (s *OutfitService) CreateOutfit(ctx context.Context, in CreateOutfitInput) (*models.Outfit, error) {
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		return nil, models.NewValidationError("Image URL is required")
	}
	if err := in.Items.Validate(); err != nil {
		return nil, err
	}
	if err := in.Context.Validate(); err != nil {
		return nil, err
	}
	publicID := strings.TrimSpace(in.PublicID)
	if publicID != "" && !media.OwnedBy(publicID, in.Actor) {
		return nil, models.NewValidationError("publicId must reference one of your uploads")
	}

	outfit := &models.Outfit{
		OwnerKey: in.Actor,
		ImageURL: imageURL,
		PublicID: publicID,
		Items:    in.Items,
		Context:  in.Context,
		WearDate: in.WearDate,
		IsPublic: true,
	}
	if in.IsPublic != nil {
		outfit.IsPublic = *in.IsPublic
	}
	var err error
	if outfit.Season, err = boundedText("Season", in.Season, maxTagLength, false); err != nil {
		return nil, err
	}
	if outfit.Mood, err = boundedText("Mood", in.Mood, maxTagLength, false); err != nil {
		return nil, err
	}
	if outfit.Description, err = boundedText("Description", in.Description, maxDescriptionLength, false); err != nil {
		return nil, err
	}
	if outfit.Items.Items == nil {
		outfit.Items = models.OutfitItems{Version: models.OutfitItemsVersion, Items: []models.OutfitItem{}}
	}

	if outfit.Season == "" || outfit.Mood == "" {
		s.enrich(ctx, outfit)
	}

	if err := s.outfits.Create(ctx, outfit); err != nil {
		return nil, err
	}
	return outfit, nil
}

// enrich fills blank season, mood and description from the vision analyzer.
// Failures leave the outfit unchanged.
func (s *OutfitService) enrich(ctx context.Context, outfit *models.Outfit) {
	if s.analyzer == nil || !s.analyzer.Enabled() || !s.flags.Enabled(FlagAIEnrichment, outfit.OwnerKey) {
		return
	}
	analysis, err := s.analyzer.Analyze(ctx, outfit.ImageURL)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Outfit analysis failed", slog.String("error", err.Error()))
		return
	}
	if outfit.Season == "" {
		outfit.Season = analysis.Season
	}
	if outfit.Mood == "" {
		outfit.Mood = analysis.Mood
	}
	if outfit.Description == "" {
		outfit.Description = analysis.Description
	}
}

// Analyze runs the vision analyzer on imageURL. It returns nil when the
// analyzer is unavailable or fails.
func (s *OutfitService) Analyze(ctx context.Context, imageURL string) *relay.OutfitAnalysis {
	if s.analyzer == nil || !s.analyzer.Enabled() || strings.TrimSpace(imageURL) == "" {
		return nil
	}
	analysis, err := s.analyzer.Analyze(ctx, imageURL)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Outfit analysis failed", slog.String("error", err.Error()))
		return nil
	}
	return analysis
}

// UploadImage stores an outfit photo for actor.
func (s *OutfitService) UploadImage(ctx context.Context, actor string, content []byte) (*media.Stored, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if s.media == nil {
		return nil, models.NewValidationError("Uploads are not configured")
	}
	return s.media.Upload(ctx, actor, content)
}

// ListOutfits returns one page of outfits. The personal scope lists the
// actor's own outfits and is empty for guests. The global scope lists public
// outfits.
func (s *OutfitService) ListOutfits(ctx context.Context, in ListOutfitsInput) ([]models.FeedItem, error) {
	filter := models.OutfitFilter{
		Season: normalizeFacet(in.Season),
		Mood:   normalizeFacet(in.Mood),
		Query:  strings.TrimSpace(in.Query),
		Limit:  PageSize,
	}
	if in.Page > 1 {
		filter.Offset = (in.Page - 1) * PageSize
	}

	switch in.Scope {
	case ScopePersonal:
		if in.Actor == "" {
			return []models.FeedItem{}, nil
		}
		filter.Viewer = in.Actor
		filter.OwnerKey = in.Actor
	case ScopeGlobal, "":
		filter.OwnerKey = in.User
	default:
		return nil, models.NewValidationError("scope must be personal or global")
	}

	outfits, err := s.outfits.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.feed.Enrich(ctx, outfits, in.Actor)
}

// ListByOwner returns owner's outfits visible to viewer.
func (s *OutfitService) ListByOwner(ctx context.Context, viewer, owner string, page int) ([]models.FeedItem, error) {
	filter := models.OutfitFilter{Viewer: viewer, OwnerKey: owner, Limit: PageSize}
	if page > 1 {
		filter.Offset = (page - 1) * PageSize
	}
	outfits, err := s.outfits.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.feed.Enrich(ctx, outfits, viewer)
}

// GetOutfit hides private outfits from everyone but their owner.
func (s *OutfitService) GetOutfit(ctx context.Context, actor, id string) (*models.FeedItem, error) {
	outfit, err := s.outfits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !outfit.VisibleTo(actor) {
		return nil, models.NewNotFoundError("Outfit", id)
	}
	items, err := s.feed.Enrich(ctx, []models.Outfit{*outfit}, actor)
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *OutfitService) UpdateOutfit(ctx context.Context, actor, id string, patch models.OutfitPatch) (*models.Outfit, error) {
	outfit, err := s.ownedOutfit(ctx, actor, id, "update")
	if err != nil {
		return nil, err
	}
	if patch.Season != nil {
		v, err := boundedText("Season", *patch.Season, maxTagLength, false)
		if err != nil {
			return nil, err
		}
		patch.Season = &v
	}
	if patch.Mood != nil {
		v, err := boundedText("Mood", *patch.Mood, maxTagLength, false)
		if err != nil {
			return nil, err
		}
		patch.Mood = &v
	}
	if patch.Description != nil {
		v, err := boundedText("Description", *patch.Description, maxDescriptionLength, false)
		if err != nil {
			return nil, err
		}
		patch.Description = &v
	}

	patch.Apply(outfit)
	outfit.UpdatedAt = time.Now().UTC()
	if err := s.outfits.Update(ctx, outfit); err != nil {
		return nil, err
	}
	return outfit, nil
}

// DeleteOutfit removes the outfit and then its stored image, unless another
// outfit still references the image.
func (s *OutfitService) DeleteOutfit(ctx context.Context, actor, id string) error {
	outfit, err := s.ownedOutfit(ctx, actor, id, "delete")
	if err != nil {
		return err
	}
	if err := s.outfits.Delete(ctx, id); err != nil {
		return err
	}
	releaseMedia(ctx, s.outfits, s.media, actor, outfit.PublicID)
	return nil
}

func (s *OutfitService) ownedOutfit(ctx context.Context, actor, id, verb string) (*models.Outfit, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	outfit, err := s.outfits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !outfit.VisibleTo(actor) {
		return nil, models.NewNotFoundError("Outfit", id)
	}
	if outfit.OwnerKey != actor {
		return nil, models.NewForbiddenError("You can only " + verb + " your own outfits")
	}
	return outfit, nil
}

func normalizeFacet(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "all") {
		return ""
	}
	return v
}

// releaseMedia deletes publicID from storage once no outfit references it.
// Keys outside owner's upload prefix are never deleted. Failures are logged.
func releaseMedia(ctx context.Context, outfits repository.OutfitRepository, remover MediaRemover, owner, publicID string) {
	if publicID == "" || remover == nil {
		return
	}
	log := middleware.Logger.With(slog.String("public_id", publicID), slog.String("owner", owner))
	if !media.OwnedBy(publicID, owner) {
		log.WarnContext(ctx, "Skipping delete of media outside owner prefix")
		return
	}
	refs, err := outfits.CountByPublicID(ctx, publicID)
	if err != nil {
		log.WarnContext(ctx, "Failed to count media references", slog.String("error", err.Error()))
		return
	}
	if refs > 0 {
		log.DebugContext(ctx, "Media still referenced", slog.Int("refs", refs))
		return
	}
	if err := remover.Delete(ctx, publicID); err != nil {
		log.WarnContext(ctx, "Failed to delete outfit media", slog.String("error", err.Error()))
	}
}
