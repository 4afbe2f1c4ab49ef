package resources

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
)

//go:embed res
var embedded embed.FS

// File returns an embedded resource by its path under res/.
func File(name string) ([]byte, error) {
	data, err := embedded.ReadFile(path.Join("res", name))
	if err != nil {
		return nil, fmt.Errorf("read embedded resource %q: %w", name, err)
	}
	return data, nil
}

// Subdir executes the subdir function.
func Subdir(dir string) (fs.FS, error) {
	cleanDir := path.Clean(path.Join("res", dir))
	sub, err := fs.Sub(embedded, cleanDir)
	if err != nil {
		return nil, fmt.Errorf("open embedded resource subdir %q: %w", cleanDir, err)
	}
	return sub, nil
}

// RobotActions returns the role-to-behavior action table.
func RobotActions() ([]byte, error) {
	return File("robot_actions.json")
}

// QuestionAnswers returns the question and response bank.
func QuestionAnswers() ([]byte, error) {
	return File("question_answer.json")
}

// ArpabetMapping returns the arpabet-to-rune phoneme table.
func ArpabetMapping() ([]byte, error) {
	return File("arpabet_mapping.csv")
}

// WordAlignments returns the grapheme and phoneme alignment table.
func WordAlignments() ([]byte, error) {
	return File("word_alignments.json")
}
