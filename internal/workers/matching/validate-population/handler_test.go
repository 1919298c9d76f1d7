// internal/workers/matching/validate-population/handler_test.go
package validatepopulation

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/pkg/catalog"
)

func createTestCatalog(t *testing.T) *catalog.Catalog {
	cat, err := catalog.FromSpecs("test", []catalog.QuestionSpec{
		{
			ID: "tidiness", Text: "How tidy do you keep your home?",
			Section: catalog.SectionLifestyle, Kind: catalog.KindScale,
			ScaleMin: 1, ScaleMax: 5, ImportanceApplies: true,
		},
	})
	require.NoError(t, err)
	return cat
}

func setupTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	handler := NewHandler(LoadConfig(), createTestCatalog(t), db, logger.NewNoOpLogger())
	return handler, mock
}

func expectPopulationQuery(mock sqlmock.Sqlmock, populationID string, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT participant_id, gender, interested_in, responses")).
		WithArgs(populationID).
		WillReturnRows(rows)
}

func TestExecute_ValidSnapshot(t *testing.T) {
	handler, mock := setupTestHandler(t)

	rows := sqlmock.NewRows([]string{"participant_id", "gender", "interested_in", "responses"}).
		AddRow("p-001", "female", []byte(`["male"]`), []byte(`{"tidiness": {"answer": {"scale": 4}}}`)).
		AddRow("p-002", "male", []byte(`["female"]`), []byte(`{"tidiness": {"answer": {"scale": 2}}}`))
	expectPopulationQuery(mock, "pop-1", rows)

	output, err := handler.Execute(context.Background(), &Input{PopulationID: "pop-1"})
	require.NoError(t, err)

	assert.True(t, output.Valid)
	assert.Equal(t, 2, output.ParticipantCount)
	assert.Empty(t, output.Issues)
}

func TestExecute_InvalidSnapshotReportsIssuesWithoutFailing(t *testing.T) {
	handler, mock := setupTestHandler(t)

	// Out-of-range scale answer and an unknown gender: findings, not errors.
	rows := sqlmock.NewRows([]string{"participant_id", "gender", "interested_in", "responses"}).
		AddRow("p-001", "unknown", []byte(`["male"]`), []byte(`{"tidiness": {"answer": {"scale": 9}}}`)).
		AddRow("p-002", "male", []byte(`["female"]`), []byte(`{"tidiness": {"answer": {"scale": 2}}}`))
	expectPopulationQuery(mock, "pop-1", rows)

	output, err := handler.Execute(context.Background(), &Input{PopulationID: "pop-1"})
	require.NoError(t, err)

	assert.False(t, output.Valid)
	require.NotEmpty(t, output.Issues)

	fields := make([]string, 0, len(output.Issues))
	for _, issue := range output.Issues {
		fields = append(fields, issue.Field)
	}
	assert.Contains(t, fields, "gender")
	assert.Contains(t, fields, "responses.tidiness.answer")
}

func TestExecute_SingletonPopulationFlagged(t *testing.T) {
	handler, mock := setupTestHandler(t)

	rows := sqlmock.NewRows([]string{"participant_id", "gender", "interested_in", "responses"}).
		AddRow("p-001", "female", []byte(`["male"]`), []byte(`{"tidiness": {"answer": {"scale": 4}}}`))
	expectPopulationQuery(mock, "pop-1", rows)

	output, err := handler.Execute(context.Background(), &Input{PopulationID: "pop-1"})
	require.NoError(t, err)

	assert.False(t, output.Valid)
	require.Len(t, output.Issues, 1)
	assert.Equal(t, "population", output.Issues[0].Field)
}

func TestExecute_SnapshotLoadFailure(t *testing.T) {
	handler, mock := setupTestHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT participant_id, gender, interested_in, responses")).
		WithArgs("pop-1").
		WillReturnError(assert.AnError)

	_, err := handler.Execute(context.Background(), &Input{PopulationID: "pop-1"})
	require.Error(t, err)

	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeSnapshotLoadFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}
