package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/cidnet/storage"
)

// Generate returns the CID of payload: the sha2-256 multihash of the full
// byte sequence rendered as lowercase hex.
//
// It is a pure function and needs no store; the network calls it once per put
// before choosing which nodes receive the payload.
func Generate(payload []byte) storage.CID {
	sum, err := multihash.Sum(payload, multihash.SHA2_256, -1)
	if err != nil {
		// multihash.Sum only errors for invalid inputs; with SHA2_256 and -1 length,
		// this should be unreachable.
		return ""
	}
	return storage.CID(sum.HexString())
}

// Validate reports whether id is a well-formed sha2-256 multihash in hex.
func Validate(id storage.CID) error {
	_, err := decode(id)
	return err
}

// ToV1 converts id to a CIDv1 using the "raw" multicodec.
func ToV1(id storage.CID) (cid.Cid, error) {
	mh, err := decode(id)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// FromV1 converts a CIDv1 (raw + sha2-256) back to its hex form.
func FromV1(c cid.Cid) (storage.CID, error) {
	if !c.Defined() {
		return "", storage.ErrInvalidCID
	}
	id := storage.CID(c.Hash().HexString())
	if _, err := decode(id); err != nil {
		return "", err
	}
	return id, nil
}

// ParseV1 decodes CIDv1 text (as carried on the wire) to its hex form.
func ParseV1(s string) (storage.CID, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return "", storage.ErrInvalidCID
	}
	return FromV1(c)
}

func decode(id storage.CID) (multihash.Multihash, error) {
	if id == "" {
		return nil, storage.ErrInvalidCID
	}
	mh, err := multihash.FromHexString(string(id))
	if err != nil {
		return nil, storage.ErrInvalidCID
	}
	dec, err := multihash.Decode(mh)
	if err != nil || dec.Code != multihash.SHA2_256 || dec.Length != 32 {
		return nil, storage.ErrInvalidCID
	}
	if mh.HexString() != string(id) {
		// Reject upper-case or otherwise non-canonical renderings.
		return nil, storage.ErrInvalidCID
	}
	return mh, nil
}
