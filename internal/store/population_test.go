// internal/store/population_test.go
package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matching-workers/internal/models"
)

const populationQuery = `
		SELECT participant_id, gender, interested_in, responses
		FROM population_members
		WHERE population_id = $1
		ORDER BY participant_id`

func TestLoadPopulation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"participant_id", "gender", "interested_in", "responses"}).
		AddRow("p-001", "female", []byte(`["male","non_binary"]`), []byte(`{
			"smoking": {"answer": {"choice": "never"}, "importance": "very_important"},
			"tidiness": {"answer": {"scale": 4}, "importance": "somewhat_important"}
		}`)).
		AddRow("p-002", "male", []byte(`["female"]`), []byte(`{
			"smoking": {"answer": {"choice": "socially"}, "preference": {"choice": "never"}, "dealbreaker": true}
		}`))

	mock.ExpectQuery(regexp.QuoteMeta(populationQuery)).
		WithArgs("pop-1").
		WillReturnRows(rows)

	participants, err := LoadPopulation(context.Background(), db, "pop-1")
	require.NoError(t, err)
	require.Len(t, participants, 2)

	first := participants[0]
	assert.Equal(t, "p-001", first.ID)
	assert.Equal(t, models.GenderFemale, first.Gender)
	assert.Equal(t, []models.Gender{models.GenderMale, models.GenderNonBinary}, first.InterestedIn)
	require.Contains(t, first.Responses, "smoking")
	assert.Equal(t, "never", first.Responses["smoking"].Answer.Choice)
	require.NotNil(t, first.Responses["smoking"].Importance)
	assert.Equal(t, models.ImportanceVeryImportant, *first.Responses["smoking"].Importance)
	require.NotNil(t, first.Responses["tidiness"].Answer.Scale)
	assert.Equal(t, 4, *first.Responses["tidiness"].Answer.Scale)

	second := participants[1]
	assert.True(t, second.Responses["smoking"].Dealbreaker)
	require.NotNil(t, second.Responses["smoking"].Preference)
	assert.Equal(t, "never", second.Responses["smoking"].Preference.Choice)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadPopulation_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(populationQuery)).
		WithArgs("pop-empty").
		WillReturnRows(sqlmock.NewRows([]string{"participant_id", "gender", "interested_in", "responses"}))

	participants, err := LoadPopulation(context.Background(), db, "pop-empty")
	require.NoError(t, err)
	assert.Empty(t, participants)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadPopulation_MalformedResponses(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"participant_id", "gender", "interested_in", "responses"}).
		AddRow("p-003", "male", []byte(`["female"]`), []byte(`{not json`))

	mock.ExpectQuery(regexp.QuoteMeta(populationQuery)).
		WithArgs("pop-1").
		WillReturnRows(rows)

	_, err = LoadPopulation(context.Background(), db, "pop-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "p-003")
	assert.Contains(t, err.Error(), "responses")
}

func TestLoadPopulation_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(populationQuery)).
		WithArgs("pop-1").
		WillReturnError(assert.AnError)

	_, err = LoadPopulation(context.Background(), db, "pop-1")
	assert.Error(t, err)
}
