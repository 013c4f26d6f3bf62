package service

import (
	"context"

	"fashfolio/internal/models"
	"fashfolio/internal/repository"
)

type EngagementService struct {
	outfits  repository.OutfitRepository
	comments repository.CommentRepository
}

type CreateCommentInput struct {
	Actor        string
	OutfitID     string
	Content      string
	AuthorName   string
	AuthorAvatar string
}

func NewEngagementService(outfits repository.OutfitRepository, comments repository.CommentRepository) *EngagementService {
	return &EngagementService{outfits: outfits, comments: comments}
}

// ToggleLike removes actor from the outfit's like set when present and adds
// it otherwise.
func (s *EngagementService) ToggleLike(ctx context.Context, actor, outfitID string) (*models.LikeResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	outfit, err := s.visibleOutfit(ctx, actor, outfitID)
	if err != nil {
		return nil, err
	}

	if outfit.LikedBy(actor) {
		count, err := s.outfits.RemoveLike(ctx, outfitID, actor)
		if err != nil {
			return nil, err
		}
		return &models.LikeResult{Liked: false, LikesCount: count, OwnerKey: outfit.OwnerKey}, nil
	}
	count, err := s.outfits.AddLike(ctx, outfitID, actor)
	if err != nil {
		return nil, err
	}
	return &models.LikeResult{Liked: true, LikesCount: count, OwnerKey: outfit.OwnerKey}, nil
}

func (s *EngagementService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := requireActor(in.Actor); err != nil {
		return nil, err
	}
	content, err := boundedText("Content", in.Content, models.MaxCommentLength, true)
	if err != nil {
		return nil, err
	}
	outfit, err := s.visibleOutfit(ctx, in.Actor, in.OutfitID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		OutfitID:     in.OutfitID,
		Content:      content,
		AuthorKey:    in.Actor,
		AuthorName:   in.AuthorName,
		AuthorAvatar: in.AuthorAvatar,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.OutfitOwnerKey = outfit.OwnerKey
	return comment, nil
}

// ListComments returns the outfit's comments, newest first.
func (s *EngagementService) ListComments(ctx context.Context, actor, outfitID string) ([]models.Comment, error) {
	if _, err := s.visibleOutfit(ctx, actor, outfitID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByOutfit(ctx, outfitID, 0)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

func (s *EngagementService) visibleOutfit(ctx context.Context, actor, id string) (*models.Outfit, error) {
	outfit, err := s.outfits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !outfit.VisibleTo(actor) {
		return nil, models.NewNotFoundError("Outfit", id)
	}
	return outfit, nil
}
