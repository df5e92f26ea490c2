package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReturnsRows(t *testing.T) {
	assert.True(t, returnsRows("SELECT * FROM nb_pm_tasks"))
	assert.True(t, returnsRows("  with t as (select 1) select * from t"))
	assert.True(t, returnsRows("EXPLAIN SELECT 1"))
	assert.False(t, returnsRows("CREATE TABLE x (id INT)"))
	assert.False(t, returnsRows("UPDATE nb_pm_tasks SET status='done'"))
	assert.False(t, returnsRows("INSERT INTO x VALUES (1)"))
}
