package setup

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// PromptYesNo prints msg to out and reads one answer line from in.
// Anything but y/yes is a no.
func PromptYesNo(in io.Reader, out io.Writer, msg string) (bool, error) {
	_, _ = fmt.Fprint(out, msg)
	r := bufio.NewReader(in)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return false, err
	}
	s := strings.TrimSpace(strings.ToLower(line))
	return s == "y" || s == "yes", nil
}
