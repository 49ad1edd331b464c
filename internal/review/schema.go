package review

const schema = `
-- One row per exercise: the date before which the exercise is not eligible
-- for review. The epoch sentinel 1970-01-01 means "always due".
CREATE TABLE IF NOT EXISTS review_state (
    exercise_name TEXT PRIMARY KEY,
    last_reviewed TEXT NOT NULL
);
`
