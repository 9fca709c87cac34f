package archive

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

func newMockArchive(t *testing.T) (*Archive, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	db := sqlx.NewDb(mockDB, "postgres")
	return NewWithDB(db, 2*time.Second), mock
}

func TestArchive_EnsureSchema(t *testing.T) {
	arch, mock := newMockArchive(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS posts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, arch.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchive_SavePosts(t *testing.T) {
	arch, mock := newMockArchive(t)

	posts := []models.Post{
		{
			ID: "n1", Source: models.SourceXiaohongshu,
			Title: "员工内购专场", Content: "全场8折",
			ContentType: models.ContentInternalPurchase,
			Category:    "高可信度折扣", Priority: 8,
			Status: models.StatusPending, Credibility: 85,
			PublishTime: time.Now().UnixMilli(),
		},
		{
			ID: "n2", Source: models.SourceWeibo,
			Title: "限时优惠", Content: "立减100",
			ContentType: models.ContentDiscount,
			Category:    "一般内容", Priority: 5,
			Status: models.StatusPending, Credibility: 60,
			PublishTime: time.Now().UnixMilli(),
		},
	}

	mock.ExpectBegin()
	stmt := mock.ExpectPrepare("INSERT INTO posts")
	for _, p := range posts {
		stmt.ExpectExec().
			WithArgs(p.Source, p.ID, p.Title, p.Content, p.ContentType,
				p.Category, p.Priority, p.Status, p.Credibility, p.Synthetic,
				p.PublishedAt()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, arch.SavePosts(context.Background(), posts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchive_SavePostsEmptyBatchIsNoop(t *testing.T) {
	arch, mock := newMockArchive(t)

	require.NoError(t, arch.SavePosts(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet(), "no SQL should run for an empty batch")
}

func TestArchive_SavePostsRollsBackOnError(t *testing.T) {
	arch, mock := newMockArchive(t)

	posts := []models.Post{{ID: "n1", Source: models.SourceXiaohongshu, Title: "t", Content: "c"}}

	mock.ExpectBegin()
	stmt := mock.ExpectPrepare("INSERT INTO posts")
	stmt.ExpectExec().WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := arch.SavePosts(context.Background(), posts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to archive post n1")
}

func TestArchive_RecordReview(t *testing.T) {
	arch, mock := newMockArchive(t)

	mock.ExpectExec("INSERT INTO review_audit").
		WithArgs("n1", models.StatusApproved, "通过").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, arch.RecordReview(context.Background(), "n1", models.StatusApproved, "通过"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
