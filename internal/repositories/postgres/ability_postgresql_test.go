package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/najah-ai/learner-service/internal/models"
)

// captureSQL records every create and query statement built on db.
func captureSQL(t *testing.T, db *gorm.DB) *[]string {
	t.Helper()
	var statements []string
	record := func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	}
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", record))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", record))
	return &statements
}

func TestAbilityPostgreSQL_LockOrCreate(t *testing.T) {
	db := dryRunDB(t)
	statements := captureSQL(t, db)
	repo := NewAbilityPostgreSQL(db)

	_, err := repo.LockOrCreate(context.Background(), nil, &models.LearnerAbility{
		StudentID:  "student-1",
		Subject:    "maths",
		Ability:    0.5,
		Confidence: 0.5,
	})
	require.NoError(t, err)

	require.Len(t, *statements, 2)
	insert, selectRow := (*statements)[0], (*statements)[1]

	assert.Contains(t, insert, `INSERT INTO "learner_abilities"`)
	assert.Contains(t, insert, `ON CONFLICT ("student_id","subject") DO NOTHING`)

	assert.Contains(t, selectRow, "student_id = $1 AND subject = $2")
	assert.Contains(t, selectRow, "FOR UPDATE")
}

func TestAbilityPostgreSQL_Save(t *testing.T) {
	db := dryRunDB(t)
	statements := captureSQL(t, db)
	repo := NewAbilityPostgreSQL(db)

	require.NoError(t, repo.Save(context.Background(), nil, &models.LearnerAbility{StudentID: "student-1", Subject: "maths"}))

	require.Len(t, *statements, 1)
	assert.Contains(t, (*statements)[0], `ON CONFLICT ("student_id","subject") DO UPDATE SET`)
	assert.Contains(t, (*statements)[0], `"responses_count"="excluded"."responses_count"`)
}
