package nnue

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Weight file format constants
const (
	MagicNumber = 0x45554E53 // "SNUE"
	Version     = 1
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// FileHeader is the header of the weight file.
type FileHeader struct {
	Magic      uint32
	Version    uint32
	InputSize  uint32
	HiddenSize uint32
}

// LoadNetwork reads a network from filename. Files may be zstd compressed;
// compression is detected from the content, not the name.
//
// File format (little endian):
//   - Header: Magic, Version, InputSize, HiddenSize (uint32 each)
//   - L1Weights: InputSize * HiddenSize * float32
//   - L1Bias: HiddenSize * float32
//   - OutputWeights: HiddenSize * float32
//   - OutputBias: float32
func LoadNetwork(filename string) (*Network, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open weights file: %w", ErrModelLoad, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(len(zstdMagic))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrModelLoad, filename, err)
	}

	var r io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open zstd stream: %w", ErrModelLoad, err)
		}
		defer dec.Close()
		r = dec
	}

	return LoadNetworkFromReader(r)
}

// LoadNetworkFromReader reads an uncompressed network from r.
func LoadNetworkFromReader(r io.Reader) (*Network, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %w", ErrModelLoad, err)
	}

	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: invalid magic number: expected %x, got %x", ErrModelLoad, MagicNumber, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version: expected %d, got %d", ErrModelLoad, Version, header.Version)
	}
	if header.InputSize != InputSize {
		return nil, fmt.Errorf("%w: input size mismatch: expected %d, got %d", ErrModelLoad, InputSize, header.InputSize)
	}
	if header.HiddenSize == 0 || header.HiddenSize > MaxHiddenSize {
		return nil, fmt.Errorf("%w: hidden size %d out of range", ErrModelLoad, header.HiddenSize)
	}

	n := NewNetwork(int(header.HiddenSize))

	if err := binary.Read(r, binary.LittleEndian, n.L1Weights); err != nil {
		return nil, fmt.Errorf("%w: failed to read L1 weights: %w", ErrModelLoad, err)
	}
	if err := binary.Read(r, binary.LittleEndian, n.L1Bias); err != nil {
		return nil, fmt.Errorf("%w: failed to read L1 bias: %w", ErrModelLoad, err)
	}
	if err := binary.Read(r, binary.LittleEndian, n.OutputWeights); err != nil {
		return nil, fmt.Errorf("%w: failed to read output weights: %w", ErrModelLoad, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &n.OutputBias); err != nil {
		return nil, fmt.Errorf("%w: failed to read output bias: %w", ErrModelLoad, err)
	}

	return n, nil
}

// SaveWeights writes the network to filename, zstd compressed when the name
// ends in ".zst".
func (n *Network) SaveWeights(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create weights file: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if strings.HasSuffix(filename, ".zst") {
		enc, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		if err := n.writeTo(enc); err != nil {
			enc.Close()
			return err
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to finish zstd stream: %w", err)
		}
	} else if err := n.writeTo(bw); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush weights file: %w", err)
	}
	return f.Close()
}

func (n *Network) writeTo(w io.Writer) error {
	header := FileHeader{
		Magic:      MagicNumber,
		Version:    Version,
		InputSize:  InputSize,
		HiddenSize: uint32(n.Hidden),
	}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, n.L1Weights); err != nil {
		return fmt.Errorf("failed to write L1 weights: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, n.L1Bias); err != nil {
		return fmt.Errorf("failed to write L1 bias: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, n.OutputWeights); err != nil {
		return fmt.Errorf("failed to write output weights: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, n.OutputBias); err != nil {
		return fmt.Errorf("failed to write output bias: %w", err)
	}
	return nil
}
