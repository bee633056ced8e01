package extractor

import (
	"errors"
	"testing"

	"golang.org/x/text/encoding/unicode"

	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

const statement = "Loan Amount: ₹5,00,000\nInterest Rate: 10.5% p.a."

func TestExtractText(t *testing.T) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(statement))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf-8", []byte(statement), statement},
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, statement...), statement},
		{"utf-16le", utf16, statement},
		{"crlf and blank lines", []byte("  EMI: 10746\r\n\r\n\rTenure: 60 months  "), "EMI: 10746\nTenure: 60 months"},
		{"windows-1252", []byte("Fee \x80500"), "Fee €500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(tt.data)
			if err != nil {
				t.Fatalf("ExtractText: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractTextRejects(t *testing.T) {
	if _, err := ExtractText([]byte("\n \r\n")); !errors.Is(err, ErrNoText) {
		t.Errorf("expected ErrNoText, got %v", err)
	}
	if _, err := ExtractText([]byte{0x89, 'P', 'N', 'G', 0, 0, 0, 0x0D}); !errors.Is(err, utils.ErrValidation) {
		t.Errorf("expected ErrValidation for binary data, got %v", err)
	}
}

func TestExtract(t *testing.T) {
	t.Run("text by mime", func(t *testing.T) {
		got, err := Extract("statement", "text/plain; charset=utf-8", []byte(statement))
		if err != nil || got != statement {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("text by extension", func(t *testing.T) {
		got, err := Extract("statement.TXT", "", []byte(statement))
		if err != nil || got != statement {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("image unsupported", func(t *testing.T) {
		png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
		if _, err := Extract("scan.png", "image/png", png); !errors.Is(err, ErrUnsupported) {
			t.Errorf("expected ErrUnsupported, got %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := Extract("a.pdf", "application/pdf", nil); !errors.Is(err, utils.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("corrupt pdf", func(t *testing.T) {
		if _, err := Extract("loan.pdf", "", []byte("%PDF-1.4 truncated")); err == nil {
			t.Error("expected an error for a corrupt PDF")
		}
	})
}
