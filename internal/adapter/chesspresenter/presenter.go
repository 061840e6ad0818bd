package chesspresenter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/park285/cheese-chess/pkg/chessdto"
)

// Presenter delivers formatted messages and board images without coupling to the command layer.
type Presenter struct {
	out        io.Writer
	writeImage func(path string, data []byte) error
}

func NewPresenter(out io.Writer, writeImage func(path string, data []byte) error) *Presenter {
	if writeImage == nil {
		writeImage = func(path string, data []byte) error { return os.WriteFile(path, data, 0o644) }
	}
	return &Presenter{out: out, writeImage: writeImage}
}

// Say prints message unless it is blank.
func (p *Presenter) Say(message string) error {
	if p == nil || p.out == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	_, err := fmt.Fprintln(p.out, message)
	return err
}

// Board prints message followed by the text board, then stores the PNG at
// imagePath when both are present.
func (p *Presenter) Board(message, board string, state *chessdto.SessionState, imagePath string) error {
	if p == nil {
		return nil
	}
	if err := p.Say(board); err != nil {
		return err
	}
	if err := p.Say(message); err != nil {
		return err
	}
	if state != nil && len(state.BoardImage) > 0 && strings.TrimSpace(imagePath) != "" {
		if err := p.writeImage(imagePath, state.BoardImage); err != nil {
			return fmt.Errorf("write board image: %w", err)
		}
	}
	return nil
}
