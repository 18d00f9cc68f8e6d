package tag

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the CreationDate text form. Parsing also accepts values
// without the fractional part.
const DateLayout = "2006-01-02 15:04:05.999999"

const (
	keyRoot         = "Root"
	keyCreationTime = "CreationTime"
	keyCreationDate = "CreationDate"
	keyInstruction  = "Instruction"
	keyReason       = "Reason"
	keyFolders      = "Folders"
	keyFiles        = "Files"
	keyNotes        = "Notes"
)

const maxLine = 16 << 20

var required = []string{keyRoot, keyCreationTime, keyCreationDate, keyInstruction, keyFolders, keyFiles}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Encode serializes t in the fixed field order.
func Encode(t Tag) []byte {
	var b bytes.Buffer
	line := func(key, value string) {
		b.WriteString(key)
		b.WriteByte('~')
		b.WriteString(value)
		b.WriteByte('\n')
	}

	line(keyRoot, newlines.Replace(t.Root))
	line(keyCreationTime, strconv.FormatFloat(t.CreationTime, 'f', -1, 64))
	line(keyCreationDate, t.CreationDate.In(time.Local).Format(DateLayout))
	line(keyInstruction, string(t.Instruction))
	line(keyReason, newlines.Replace(t.Reason))
	line(keyFolders, EncodeList(t.Folders))
	line(keyFiles, EncodeList(t.Files))
	line(keyNotes, newlines.Replace(t.Notes))

	return b.Bytes()
}

// Decode parses a tag record. path is only used in errors.
func Decode(path string, r io.Reader) (Tag, error) {
	fields := make(map[string]string, len(required)+2)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "~")
		if !ok {
			return Tag{}, &MalformedError{Path: path, Reason: fmt.Sprintf("line %d has no separator", n)}
		}
		fields[strings.TrimSpace(key)] = value
	}
	if err := sc.Err(); err != nil {
		return Tag{}, fmt.Errorf("reading tag %s: %w", path, err)
	}

	for _, k := range required {
		if _, ok := fields[k]; !ok {
			return Tag{}, &MalformedError{Path: path, Field: k, Reason: "missing"}
		}
	}

	t := Tag{
		Root:   fields[keyRoot],
		Reason: fields[keyReason],
		Notes:  fields[keyNotes],
	}

	ct, err := strconv.ParseFloat(strings.TrimSpace(fields[keyCreationTime]), 64)
	if err != nil {
		return Tag{}, &MalformedError{Path: path, Field: keyCreationTime, Reason: err.Error()}
	}
	t.CreationTime = ct

	cd, err := time.ParseInLocation(time.DateTime, strings.TrimSpace(fields[keyCreationDate]), time.Local)
	if err != nil {
		return Tag{}, &MalformedError{Path: path, Field: keyCreationDate, Reason: err.Error()}
	}
	t.CreationDate = cd

	t.Instruction = Instruction(strings.TrimSpace(fields[keyInstruction]))
	if !t.Instruction.Valid() {
		return Tag{}, &MalformedError{Path: path, Field: keyInstruction, Reason: fmt.Sprintf("unknown instruction %q", t.Instruction)}
	}

	if t.Folders, err = DecodeList(fields[keyFolders]); err != nil {
		return Tag{}, &MalformedError{Path: path, Field: keyFolders, Reason: err.Error()}
	}
	if t.Files, err = DecodeList(fields[keyFiles]); err != nil {
		return Tag{}, &MalformedError{Path: path, Field: keyFiles, Reason: err.Error()}
	}

	return t, nil
}
