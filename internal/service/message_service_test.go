package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dom/members-only/internal/domain"
	"github.com/dom/members-only/internal/service"
	"github.com/dom/members-only/internal/testutil"
	"github.com/dom/members-only/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessageService(t *testing.T) (*service.MessageService, *testutil.FakeRepositories) {
	t.Helper()
	repos := testutil.NewFakeRepositories()
	svc := service.NewMessageService(repos.Message, validation.New(), nil, testutil.TestLogger())
	return svc, repos
}

func TestMessageService_List(t *testing.T) {
	svc, repos := newMessageService(t)
	author, _ := testutil.NewUserBuilder().WithName("Ada", "Lovelace").AsMember().Build(t, repos.User)

	now := time.Now()
	testutil.NewMessageBuilder(author).WithTitle("oldest").At(now.Add(-2 * time.Hour)).Build(t, repos.Message)
	testutil.NewMessageBuilder(author).WithTitle("newest").At(now).Build(t, repos.Message)
	testutil.NewMessageBuilder(author).WithTitle("middle").At(now.Add(-time.Hour)).Build(t, repos.Message)

	views, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 3)

	assert.Equal(t, "newest", views[0].Title)
	assert.Equal(t, "middle", views[1].Title)
	assert.Equal(t, "oldest", views[2].Title)
	for _, v := range views {
		assert.Equal(t, "Ada Lovelace", v.AuthorName)
		assert.Equal(t, author.ID, v.AuthorID)
	}
}

func TestMessageService_List_Empty(t *testing.T) {
	svc, _ := newMessageService(t)

	views, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestMessageService_List_StoreUnavailable(t *testing.T) {
	svc, repos := newMessageService(t)
	repos.Message.Err = errors.New("timeout")

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestMessageService_Create(t *testing.T) {
	svc, repos := newMessageService(t)
	member, _ := testutil.NewUserBuilder().AsMember().Build(t, repos.User)
	plain, _ := testutil.NewUserBuilder().Build(t, repos.User)

	tests := []struct {
		name      string
		principal *domain.User
		input     service.MessageInput
		wantErr   error
		wantTitle string
		wantText  string
	}{
		{
			name:      "member posts",
			principal: member,
			input:     service.MessageInput{Title: "  Hi  ", Text: " there "},
			wantTitle: "Hi",
			wantText:  "there",
		},
		{
			name:      "markup is stripped",
			principal: member,
			input:     service.MessageInput{Title: "<b>Bold</b>", Text: "<script>x()</script>plain"},
			wantTitle: "Bold",
			wantText:  "plain",
		},
		{
			name:      "special characters are stored as typed",
			principal: member,
			input:     service.MessageInput{Title: "Tom & Jerry", Text: `if a < b && b > c then "ok"`},
			wantTitle: "Tom & Jerry",
			wantText:  `if a < b && b > c then "ok"`,
		},
		{
			name:      "length counts typed characters",
			principal: member,
			input:     service.MessageInput{Title: "Ampersands", Text: strings.Repeat("&", 300)},
			wantTitle: "Ampersands",
			wantText:  strings.Repeat("&", 300),
		},
		{
			name:      "non-member is forbidden",
			principal: plain,
			input:     service.MessageInput{Title: "Hi", Text: "there"},
			wantErr:   domain.ErrForbidden,
		},
		{
			name:    "anonymous is forbidden",
			input:   service.MessageInput{Title: "Hi", Text: "there"},
			wantErr: domain.ErrForbidden,
		},
		{
			name:      "blank title",
			principal: member,
			input:     service.MessageInput{Title: "   ", Text: "there"},
			wantErr:   domain.ErrValidation,
		},
		{
			name:      "blank text",
			principal: member,
			input:     service.MessageInput{Title: "Hi", Text: "\t\n"},
			wantErr:   domain.ErrValidation,
		},
		{
			name:      "title too long",
			principal: member,
			input:     service.MessageInput{Title: strings.Repeat("a", 101), Text: "there"},
			wantErr:   domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := repos.Message.Count()

			msg, err := svc.Create(context.Background(), tt.principal, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, repos.Message.Count())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, msg.Title)
			assert.Equal(t, tt.wantText, msg.Text)
			assert.Equal(t, tt.principal.ID, msg.AuthorID)
			assert.False(t, msg.CreatedAt.IsZero())
			assert.Equal(t, before+1, repos.Message.Count())
		})
	}
}

func TestMessageService_Delete(t *testing.T) {
	svc, repos := newMessageService(t)
	admin, _ := testutil.NewUserBuilder().AsAdmin().Build(t, repos.User)
	member, _ := testutil.NewUserBuilder().AsMember().Build(t, repos.User)
	msg := testutil.NewMessageBuilder(member).Build(t, repos.Message)

	tests := []struct {
		name      string
		principal *domain.User
		id        string
		wantErr   error
		wantCount int
	}{
		{name: "member cannot delete", principal: member, id: "1", wantErr: domain.ErrForbidden, wantCount: 1},
		{name: "malformed id", principal: admin, id: "abc", wantErr: domain.ErrNotFound, wantCount: 1},
		{name: "negative id", principal: admin, id: "-4", wantErr: domain.ErrNotFound, wantCount: 1},
		{name: "missing message is a soft success", principal: admin, id: "42", wantCount: 1},
		{name: "admin deletes", principal: admin, id: "1", wantCount: 0},
	}

	require.Equal(t, int64(1), msg.ID)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Delete(context.Background(), tt.principal, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCount, repos.Message.Count())
		})
	}
}
