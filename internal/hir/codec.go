package hir

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"halfbyte/internal/source"
	"halfbyte/internal/types"
)

// Current schema version - increment when the encoded layout changes
const schemaVersion uint16 = 2

const fileMagic = "HBIR"

// ErrBadFile reports input that is not an .hbir file of a known schema.
var ErrBadFile = errors.New("hir: not a halfbyte IR file")

type fileEnvelope struct {
	Magic   string
	Schema  uint16
	Program *Program
}

// Encode writes p as msgpack.
func Encode(w io.Writer, p *Program) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(&fileEnvelope{Magic: fileMagic, Schema: schemaVersion, Program: p})
}

// Decode reads a program written by Encode.
func Decode(r io.Reader) (*Program, error) {
	var env fileEnvelope
	if err := msgpack.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFile, err)
	}
	if env.Magic != fileMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadFile, env.Magic)
	}
	if env.Schema != schemaVersion {
		return nil, fmt.Errorf("%w: schema %d, want %d", ErrBadFile, env.Schema, schemaVersion)
	}
	if env.Program == nil {
		return nil, fmt.Errorf("%w: empty program", ErrBadFile)
	}
	return env.Program, nil
}

// Marshal encodes p into a byte slice.
func Marshal(p *Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a byte slice produced by Marshal.
func Unmarshal(data []byte) (*Program, error) {
	return Decode(bytes.NewReader(data))
}

// EncodeMsgpack writes the kind first so DecodeMsgpack knows which payload
// follows.
func (e *Expr) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := encodeHeader(enc, uint8(e.Kind), e.Type, e.Span); err != nil {
		return err
	}
	return enc.Encode(e.Data)
}

// DecodeMsgpack is the inverse of EncodeMsgpack.
func (e *Expr) DecodeMsgpack(dec *msgpack.Decoder) error {
	kind, err := decodeHeader(dec, &e.Type, &e.Span)
	if err != nil {
		return err
	}
	e.Kind = ExprKind(kind)
	switch e.Kind {
	case ExprLiteral:
		e.Data, err = decodeData[LiteralData](dec)
	case ExprVarRef:
		e.Data, err = decodeData[VarRefData](dec)
	case ExprUnary:
		e.Data, err = decodeData[UnaryData](dec)
	case ExprBinary:
		e.Data, err = decodeData[BinaryData](dec)
	case ExprCall:
		e.Data, err = decodeData[CallData](dec)
	case ExprIndex:
		e.Data, err = decodeData[IndexData](dec)
	case ExprCast:
		e.Data, err = decodeData[CastData](dec)
	case ExprBuiltin:
		e.Data, err = decodeData[BuiltinData](dec)
	case ExprDataAddr:
		e.Data, err = decodeData[DataAddrData](dec)
	default:
		return fmt.Errorf("%w: expression kind %d", ErrBadFile, kind)
	}
	return err
}

// EncodeMsgpack writes the kind first so DecodeMsgpack knows which payload
// follows.
func (s *Stmt) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := encodeHeader(enc, uint8(s.Kind), types.Type{}, s.Span); err != nil {
		return err
	}
	return enc.Encode(s.Data)
}

// DecodeMsgpack is the inverse of EncodeMsgpack.
func (s *Stmt) DecodeMsgpack(dec *msgpack.Decoder) error {
	var unused types.Type
	kind, err := decodeHeader(dec, &unused, &s.Span)
	if err != nil {
		return err
	}
	s.Kind = StmtKind(kind)
	switch s.Kind {
	case StmtLet:
		s.Data, err = decodeData[LetData](dec)
	case StmtAssign:
		s.Data, err = decodeData[AssignData](dec)
	case StmtExpr:
		s.Data, err = decodeData[ExprStmtData](dec)
	case StmtReturn:
		s.Data, err = decodeData[ReturnData](dec)
	case StmtBreak:
		s.Data, err = decodeData[BreakData](dec)
	case StmtContinue:
		s.Data, err = decodeData[ContinueData](dec)
	case StmtIf:
		s.Data, err = decodeData[IfData](dec)
	case StmtWhile:
		s.Data, err = decodeData[WhileData](dec)
	case StmtFor:
		s.Data, err = decodeData[ForData](dec)
	default:
		return fmt.Errorf("%w: statement kind %d", ErrBadFile, kind)
	}
	return err
}

func encodeHeader(enc *msgpack.Encoder, kind uint8, t types.Type, span source.Span) error {
	if err := enc.EncodeUint8(kind); err != nil {
		return err
	}
	if err := enc.Encode(t); err != nil {
		return err
	}
	return enc.Encode(span)
}

func decodeHeader(dec *msgpack.Decoder, t *types.Type, span *source.Span) (uint8, error) {
	kind, err := dec.DecodeUint8()
	if err != nil {
		return 0, err
	}
	if err := dec.Decode(t); err != nil {
		return 0, err
	}
	if err := dec.Decode(span); err != nil {
		return 0, err
	}
	return kind, nil
}

func decodeData[T any](dec *msgpack.Decoder) (T, error) {
	var out T
	err := dec.Decode(&out)
	return out, err
}
