package protocol

import (
	"fmt"

	"github.com/tonylturner/zbncp/internal/ncp/codec"
	"github.com/tonylturner/zbncp/internal/ncp/spec"
)

// CertSuite selects the key establishment cipher suite.
type CertSuite uint8

const (
	SuiteCS1  CertSuite = 1
	SuiteCS2  CertSuite = 2
	SuiteBoth CertSuite = SuiteCS1 | SuiteCS2
)

type certLayout struct{ caKey, cert, privKey int }

var certLayouts = map[CertSuite]certLayout{
	SuiteCS1: {caKey: 22, cert: 48, privKey: 21},
	SuiteCS2: {caKey: 37, cert: 74, privKey: 36},
}

// InstallCode adds an install code for a joining device.
type InstallCode struct {
	IEEE IEEEAddr
	Code []byte
}

func (v *InstallCode) EncodeTo(w *codec.Writer) {
	v.IEEE.put(w)
	w.Bytes(v.Code)
}

func (v *InstallCode) DecodeFrom(r *codec.Reader) {
	v.IEEE.get(r)
	v.Code = r.Bytes(r.Remaining())
}

// RawBytes is an unframed body consumed to its end (local install code).
type RawBytes struct{ Data []byte }

func (v *RawBytes) EncodeTo(w *codec.Writer)   { w.Bytes(v.Data) }
func (v *RawBytes) DecodeFrom(r *codec.Reader) { v.Data = r.Bytes(r.Remaining()) }

// ICRsp returns an install code.
type ICRsp struct{ Code []byte }

func (v *ICRsp) EncodeTo(w *codec.Writer) {
	w.Uint8(uint8(len(v.Code)))
	w.Bytes(v.Code)
}

func (v *ICRsp) DecodeFrom(r *codec.Reader) {
	v.Code = r.Bytes(int(r.Uint8()))
}

// Cert installs a certificate for one suite. Field widths follow the suite.
type Cert struct {
	Suite       CertSuite
	CAPublicKey []byte
	Certificate []byte
	PrivateKey  []byte
}

// Validate checks the field widths against the suite layout.
func (v *Cert) Validate() error {
	l, ok := certLayouts[v.Suite]
	if !ok {
		return fmt.Errorf("unknown certificate suite %d", v.Suite)
	}
	if len(v.CAPublicKey) != l.caKey || len(v.Certificate) != l.cert || len(v.PrivateKey) != l.privKey {
		return fmt.Errorf("suite %d wants %d/%d/%d bytes, got %d/%d/%d", v.Suite,
			l.caKey, l.cert, l.privKey, len(v.CAPublicKey), len(v.Certificate), len(v.PrivateKey))
	}
	return nil
}

func (v *Cert) EncodeTo(w *codec.Writer) {
	l := certLayouts[v.Suite]
	w.Uint8(uint8(v.Suite))
	putPadded(w, v.CAPublicKey, l.caKey)
	putPadded(w, v.Certificate, l.cert)
	putPadded(w, v.PrivateKey, l.privKey)
}

func (v *Cert) DecodeFrom(r *codec.Reader) {
	v.Suite = CertSuite(r.Uint8())
	l, ok := certLayouts[v.Suite]
	if !ok {
		v.CAPublicKey = r.Bytes(r.Remaining())
		return
	}
	v.CAPublicKey = r.Bytes(l.caKey)
	v.Certificate = r.Bytes(l.cert)
	v.PrivateKey = r.Bytes(l.privKey)
}

func putPadded(w *codec.Writer, b []byte, n int) {
	if len(b) >= n {
		w.Bytes(b[:n])
		return
	}
	w.Bytes(b)
	w.Zero(n - len(b))
}

// CertRef names a stored certificate (delete and get requests).
type CertRef struct {
	Suite  CertSuite
	Issuer [8]byte
	IEEE   IEEEAddr
}

func (v *CertRef) EncodeTo(w *codec.Writer) {
	w.Uint8(uint8(v.Suite))
	w.Bytes(v.Issuer[:])
	v.IEEE.put(w)
}

func (v *CertRef) DecodeFrom(r *codec.Reader) {
	v.Suite = CertSuite(r.Uint8())
	r.Fixed(v.Issuer[:])
	v.IEEE.get(r)
}

// KEFinishedInd reports the outcome of key establishment with a child.
type KEFinishedInd struct {
	Status    spec.StatusID
	ShortAddr uint16
	IEEE      IEEEAddr
}

func (v *KEFinishedInd) EncodeTo(w *codec.Writer) {
	cat, code := v.Status.Decompose()
	w.Uint8(uint8(cat))
	w.Uint8(code)
	w.Uint16(v.ShortAddr)
	v.IEEE.put(w)
}

func (v *KEFinishedInd) DecodeFrom(r *codec.Reader) {
	cat := r.Uint8()
	code := r.Uint8()
	v.Status = spec.StatusIDOf(spec.StatusCategory(cat), code)
	v.ShortAddr = r.Uint16()
	v.IEEE.get(r)
}
