package alphabet

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

// Archive format: the magic header, the configuration, then one block per
// occupied bit with its length-prefixed signature strings, all gzip
// compressed.  Integers are big endian.
const archiveMagic = "MSALPH1\n"

const (
	flagUseStereo         = 1 << 0
	flagRegisterAllLevels = 1 << 1
)

// maxSignatureLen bounds a single signature string in an archive.  Corrupt
// length prefixes otherwise cause multi-gigabyte allocations before the read
// fails.
const maxSignatureLen = 1 << 20

// Save writes the alphabet to w in the compressed archive format.
func (a *Alphabet) Save(w io.Writer) error {
	zw := gzip.NewWriter(w)
	bw := bufio.NewWriter(zw)

	if _, err := bw.WriteString(archiveMagic); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "write archive header")
	}

	var flags uint8
	if a.cfg.UseStereo {
		flags |= flagUseStereo
	}
	if a.cfg.RegisterAllLevels {
		flags |= flagRegisterAllLevels
	}
	header := []interface{}{
		uint32(a.cfg.Radius),
		a.cfg.BitWidth,
		flags,
		uint32(len(a.entries)),
	}
	for _, v := range header {
		if err := binary.Write(bw, binary.BigEndian, v); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "write archive header")
		}
	}

	for _, bit := range a.Bits() {
		sigs, _ := a.SignaturesForBit(bit)
		if err := binary.Write(bw, binary.BigEndian, bit); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "write bit block")
		}
		if err := binary.Write(bw, binary.BigEndian, uint32(len(sigs))); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "write bit block")
		}
		for _, s := range sigs {
			if err := binary.Write(bw, binary.BigEndian, uint32(len(s))); err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "write signature")
			}
			if _, err := bw.WriteString(s); err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "write signature")
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "flush archive")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "close compressor")
	}
	return nil
}

// Load reads an alphabet from r.
func Load(r io.Reader) (*Alphabet, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAlphabetLoad, "archive is not gzip compressed")
	}
	defer zr.Close()
	br := bufio.NewReader(zr)

	magic := make([]byte, len(archiveMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAlphabetLoad, "read archive header")
	}
	if string(magic) != archiveMagic {
		return nil, errors.New(errors.ErrCodeAlphabetLoad, "bad archive magic")
	}

	var (
		radius   uint32
		bitWidth uint32
		flags    uint8
		buckets  uint32
	)
	for _, dst := range []interface{}{&radius, &bitWidth, &flags, &buckets} {
		if err := binary.Read(br, binary.BigEndian, dst); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeAlphabetLoad, "read archive header")
		}
	}

	a := New(Config{
		Radius:            int(radius),
		BitWidth:          bitWidth,
		UseStereo:         flags&flagUseStereo != 0,
		RegisterAllLevels: flags&flagRegisterAllLevels != 0,
	})

	for i := uint32(0); i < buckets; i++ {
		var bit, count uint32
		if err := binary.Read(br, binary.BigEndian, &bit); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeAlphabetLoad, "read bit block")
		}
		if err := binary.Read(br, binary.BigEndian, &count); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeAlphabetLoad, "read bit block")
		}
		if bit >= bitWidth {
			return nil, errors.Newf(errors.ErrCodeAlphabetLoad,
				"bit %d exceeds bit width %d", bit, bitWidth)
		}
		for j := uint32(0); j < count; j++ {
			var n uint32
			if err := binary.Read(br, binary.BigEndian, &n); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeAlphabetLoad, "read signature length")
			}
			if n > maxSignatureLen {
				return nil, errors.Newf(errors.ErrCodeAlphabetLoad,
					"signature length %d exceeds limit", n)
			}
			buf := make([]byte, n)
			if _, err := io.ReadFull(br, buf); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeAlphabetLoad, "read signature")
			}
			a.add(bit, string(buf))
		}
	}
	return a, nil
}

// SaveFile writes the alphabet to a file, creating or truncating it.
func (a *Alphabet) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "create alphabet file")
	}
	if err := a.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads an alphabet from a file.
func LoadFile(path string) (*Alphabet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAlphabetLoad, "open alphabet file")
	}
	defer f.Close()
	return Load(f)
}
