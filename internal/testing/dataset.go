package testing

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// StudentHeader is the column layout of the student performance fixture.
var StudentHeader = []string{
	"gender", "race_ethnicity", "parental_level_of_education", "lunch",
	"test_preparation_course", "math_score", "reading_score", "writing_score",
}

// StudentRows returns n distinct student records. The math_score column
// holds the row number, so every row is unique.
func StudentRows(n int) [][]string {
	genders := []string{"female", "male"}
	groups := []string{"group A", "group B", "group C", "group D", "group E"}
	education := []string{"bachelor's degree", "some college", "master's degree", "high school"}
	lunch := []string{"standard", "free/reduced"}
	prep := []string{"none", "completed"}

	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = []string{
			genders[i%len(genders)],
			groups[i%len(groups)],
			education[i%len(education)],
			lunch[i%len(lunch)],
			prep[i%len(prep)],
			fmt.Sprint(i),
			fmt.Sprint((i * 7) % 100),
			fmt.Sprint((i * 3) % 100),
		}
	}
	return rows
}

// WriteStudentCSV writes a fixture with n data rows to dir/name and returns its path.
func WriteStudentCSV(t *testing.T, dir, name string, n int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create fixture %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(StudentHeader); err != nil {
		t.Fatalf("Failed to write fixture header: %v", err)
	}
	if err := w.WriteAll(StudentRows(n)); err != nil {
		t.Fatalf("Failed to write fixture rows: %v", err)
	}
	return path
}

// CountDataRows returns the number of records after the header in the CSV at path.
func CountDataRows(t *testing.T, path string) int {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", path, err)
	}
	if len(records) == 0 {
		return 0
	}
	return len(records) - 1
}
