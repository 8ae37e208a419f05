package handlers

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pipeline"
	"github.com/videotube/backend/internal/repositories"
)

type fakeUserRepo struct {
	users        map[primitive.ObjectID]models.User
	refreshToken map[primitive.ObjectID]string
	viewed       map[primitive.ObjectID][]primitive.ObjectID
	createErr    error
}

func newFakeUserRepo(users ...models.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:        make(map[primitive.ObjectID]models.User),
		refreshToken: make(map[primitive.ObjectID]string),
		viewed:       make(map[primitive.ObjectID][]primitive.ObjectID),
	}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) Create(_ context.Context, user models.User) (models.User, error) {
	if f.createErr != nil {
		return models.User{}, f.createErr
	}
	for _, existing := range f.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return models.User{}, repositories.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.RefreshToken = f.refreshToken[id]
	return user, nil
}

func (f *fakeUserRepo) FindByLogin(_ context.Context, identifier string) (models.User, error) {
	for _, user := range f.users {
		if user.Email == identifier || user.Username == identifier {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (f *fakeUserRepo) UpdateAccount(_ context.Context, id primitive.ObjectID, fullName, email string) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	if fullName != "" {
		user.FullName = fullName
	}
	if email != "" {
		user.Email = email
	}
	f.users[id] = user
	return user, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	user, ok := f.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.PasswordHash = passwordHash
	f.users[id] = user
	return nil
}

func (f *fakeUserRepo) SetRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	if token == "" {
		delete(f.refreshToken, id)
		return nil
	}
	f.refreshToken[id] = token
	return nil
}

func (f *fakeUserRepo) UpdateAvatar(_ context.Context, id primitive.ObjectID, asset models.MediaAsset) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.Avatar = &asset
	f.users[id] = user
	return user, nil
}

func (f *fakeUserRepo) UpdateCoverImage(_ context.Context, id primitive.ObjectID, asset models.MediaAsset) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.CoverImage = &asset
	f.users[id] = user
	return user, nil
}

func (f *fakeUserRepo) ChannelProfile(_ context.Context, username string, _ primitive.ObjectID) (repositories.ChannelProfile, error) {
	for _, user := range f.users {
		if user.Username == username {
			return repositories.ChannelProfile{ID: user.ID, Username: user.Username, FullName: user.FullName}, nil
		}
	}
	return repositories.ChannelProfile{}, repositories.ErrNotFound
}

func (f *fakeUserRepo) WatchHistory(context.Context, primitive.ObjectID) ([]repositories.WatchHistoryEntry, error) {
	return nil, nil
}

func (f *fakeUserRepo) RecordView(_ context.Context, id, videoID primitive.ObjectID) (bool, error) {
	for _, seen := range f.viewed[id] {
		if seen == videoID {
			return false, nil
		}
	}
	f.viewed[id] = append(f.viewed[id], videoID)
	return true, nil
}

type fakeVideoRepo struct {
	videos    map[primitive.ObjectID]models.Video
	views     map[primitive.ObjectID]int64
	deleted   []primitive.ObjectID
	searchErr error
}

func newFakeVideoRepo(videos ...models.Video) *fakeVideoRepo {
	repo := &fakeVideoRepo{
		videos: make(map[primitive.ObjectID]models.Video),
		views:  make(map[primitive.ObjectID]int64),
	}
	for _, v := range videos {
		repo.videos[v.ID] = v
	}
	return repo
}

func (f *fakeVideoRepo) Create(_ context.Context, video models.Video) (models.Video, error) {
	video.ID = primitive.NewObjectID()
	video.CreatedAt = time.Now().UTC()
	f.videos[video.ID] = video
	return video, nil
}

func (f *fakeVideoRepo) FindByID(_ context.Context, id primitive.ObjectID) (models.Video, error) {
	video, ok := f.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (f *fakeVideoRepo) Search(_ context.Context, q repositories.VideoQuery, req pipeline.PageRequest) (pipeline.Page[repositories.VideoListing], error) {
	if f.searchErr != nil {
		return pipeline.Page[repositories.VideoListing]{}, f.searchErr
	}
	var items []repositories.VideoListing
	for _, video := range f.videos {
		if !q.Owner.IsZero() && video.Owner != q.Owner {
			continue
		}
		if !video.IsPublished && video.Owner != q.Viewer {
			continue
		}
		items = append(items, repositories.VideoListing{ID: video.ID, Title: video.Title})
	}
	return pipeline.NewPage(items, int64(len(items)), req), nil
}

func (f *fakeVideoRepo) Detail(_ context.Context, id, _ primitive.ObjectID) (repositories.VideoDetail, error) {
	video, ok := f.videos[id]
	if !ok {
		return repositories.VideoDetail{}, repositories.ErrNotFound
	}
	return repositories.VideoDetail{
		VideoListing: repositories.VideoListing{ID: video.ID, Title: video.Title, Views: video.Views + f.views[id]},
	}, nil
}

func (f *fakeVideoRepo) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	f.views[id]++
	return nil
}

func (f *fakeVideoRepo) UpdateDetails(_ context.Context, id primitive.ObjectID, title, description string, thumbnail *models.MediaAsset) (models.Video, error) {
	video, ok := f.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	if title != "" {
		video.Title = title
	}
	if description != "" {
		video.Description = description
	}
	if thumbnail != nil {
		video.Thumbnail = *thumbnail
	}
	f.videos[id] = video
	return video, nil
}

func (f *fakeVideoRepo) SetPublished(_ context.Context, id primitive.ObjectID, published bool) (models.Video, error) {
	video, ok := f.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.IsPublished = published
	f.videos[id] = video
	return video, nil
}

func (f *fakeVideoRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.videos, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeVideoRepo) ChannelVideos(_ context.Context, owner primitive.ObjectID, req pipeline.PageRequest) (pipeline.Page[repositories.ChannelVideo], error) {
	var items []repositories.ChannelVideo
	for _, video := range f.videos {
		if video.Owner == owner {
			items = append(items, repositories.ChannelVideo{ID: video.ID, Title: video.Title})
		}
	}
	return pipeline.NewPage(items, int64(len(items)), req), nil
}

type fakeLikeRepo struct {
	likes map[string]bool
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: make(map[string]bool)}
}

func (f *fakeLikeRepo) Toggle(_ context.Context, kind models.LikeKind, target, likedBy primitive.ObjectID) (bool, error) {
	key := string(kind) + target.Hex() + likedBy.Hex()
	f.likes[key] = !f.likes[key]
	return f.likes[key], nil
}

func (f *fakeLikeRepo) LikedVideos(context.Context, primitive.ObjectID) ([]repositories.LikedVideo, error) {
	return nil, nil
}

type fakeTokenIssuer struct {
	refreshUser string
	verifyErr   error
}

func (f *fakeTokenIssuer) Issue(userID, _ string) (models.SessionTokens, error) {
	now := time.Now().UTC()
	return models.SessionTokens{
		AccessToken:      "access-" + userID,
		AccessExpiresAt:  now.Add(time.Minute),
		RefreshToken:     "refresh-" + userID,
		RefreshExpiresAt: now.Add(time.Hour),
	}, nil
}

func (f *fakeTokenIssuer) VerifyRefresh(string) (string, error) {
	if f.verifyErr != nil {
		return "", f.verifyErr
	}
	return f.refreshUser, nil
}

type fakeMedia struct {
	uploads []string
	deleted []string
}

func (f *fakeMedia) Upload(_ context.Context, folder, filename string, _ io.Reader) (models.MediaAsset, error) {
	key := folder + "/" + filename
	f.uploads = append(f.uploads, key)
	return models.MediaAsset{URL: "https://cdn.test/" + key, PublicID: key}, nil
}

func (f *fakeMedia) Delete(_ context.Context, publicID string) error {
	f.deleted = append(f.deleted, publicID)
	return nil
}

type fakeCleanup struct {
	videos   []primitive.ObjectID
	comments []primitive.ObjectID
	tweets   []primitive.ObjectID
	assets   []string
}

func (f *fakeCleanup) VideoDeleted(_ context.Context, videoID primitive.ObjectID, assetIDs ...string) error {
	f.videos = append(f.videos, videoID)
	f.assets = append(f.assets, assetIDs...)
	return nil
}

func (f *fakeCleanup) CommentDeleted(_ context.Context, commentID primitive.ObjectID) error {
	f.comments = append(f.comments, commentID)
	return nil
}

func (f *fakeCleanup) TweetDeleted(_ context.Context, tweetID primitive.ObjectID) error {
	f.tweets = append(f.tweets, tweetID)
	return nil
}

func (f *fakeCleanup) AssetReplaced(_ context.Context, assetIDs ...string) error {
	f.assets = append(f.assets, assetIDs...)
	return nil
}
