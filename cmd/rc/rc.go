// rc is a command-line tool for compressing and decompressing files with
// the rangecoder arithmetic-coding pipelines.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/mewkiz/pkg/errutil"
	"github.com/pkg/errors"

	"github.com/mewkiz/rangecoder"
	"github.com/mewkiz/rangecoder/model"
)

// Exit codes, one per failure category.
const (
	exitOK = iota
	exitUsage
	exitIO
	exitFormat
	exitInvariant
)

// errUsage and errIO are sentinel causes: every usage or I/O failure is
// reported as errors.Wrap(errUsage/errIO, ...), so exitCode can recover the
// category with errors.Cause regardless of how much context was added on
// the way up.
var (
	errUsage = errors.New("usage error")
	errIO    = errors.New("I/O error")
)

// exitCode maps err to the code main should terminate with. A
// *rangecoder.FormatError anywhere in the cause chain means the input was
// not a valid compressed stream; errUsage/errIO causes map directly;
// anything else is an internal invariant violation.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	cause := errors.Cause(err)
	switch cause {
	case errUsage:
		return exitUsage
	case errIO:
		return exitIO
	}
	if _, ok := cause.(*rangecoder.FormatError); ok {
		return exitFormat
	}
	// The rangecoder packages wrap every underlying byte-stream failure
	// with errutil.Err, whose ErrInfo implements neither Cause nor
	// Unwrap, so errors.Cause stops at it; recognize it here directly,
	// along with any bare file-system error, instead of letting real
	// I/O failures fall through to the invariant-violation catch-all.
	if _, ok := cause.(*errutil.ErrInfo); ok {
		return exitIO
	}
	if _, ok := cause.(*fs.PathError); ok {
		return exitIO
	}
	return exitInvariant
}

const defaultModel = model.PresetEntropyHash

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: rc [compress|decompress|test] [OPTION]... FILE...")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "compress [-model NAME] INPUT OUTPUT")
	fmt.Fprintln(os.Stderr, "  Compress INPUT into OUTPUT. INPUT may be a directory, shallow")
	fmt.Fprintln(os.Stderr, "  traversed, in which case OUTPUT must be a directory too.")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "decompress [-model NAME] INPUT OUTPUT")
	fmt.Fprintln(os.Stderr, "  Decompress INPUT into OUTPUT, same directory rules as compress.")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "test [-model NAME] INPUT")
	fmt.Fprintln(os.Stderr, "  Compress then decompress INPUT and compare against the original.")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "NAME is one of: %v (default %q)\n", model.Names(), defaultModel)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitUsage)
	}
	command := os.Args[1]
	os.Args = append(os.Args[:1], os.Args[2:]...)

	var modelName string
	flag.StringVar(&modelName, "model", defaultModel, "model preset to use")
	flag.Usage = usage
	flag.Parse()

	var err error
	switch command {
	case "compress":
		if flag.NArg() != 2 {
			usage()
			os.Exit(exitUsage)
		}
		err = compressPath(flag.Arg(0), flag.Arg(1), modelName)
	case "decompress":
		if flag.NArg() != 2 {
			usage()
			os.Exit(exitUsage)
		}
		err = decompressPath(flag.Arg(0), flag.Arg(1), modelName)
	case "test":
		if flag.NArg() != 1 {
			usage()
			os.Exit(exitUsage)
		}
		err = testPath(flag.Arg(0), modelName)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		usage()
		os.Exit(exitUsage)
	}

	if err != nil {
		log.Printf("%+v", err)
		os.Exit(exitCode(err))
	}
}

func newModel(name string) (rangecoder.BitModel, error) {
	m, _, err := model.Preset(name)
	if err != nil {
		return nil, errors.Wrap(errUsage, err.Error())
	}
	return m, nil
}

func openIn(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errIO, err.Error())
	}
	return f, nil
}

func createOut(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errIO, err.Error())
	}
	return f, nil
}

func runPipeline(huffman, decode bool, r *os.File, w *os.File, m rangecoder.BitModel) error {
	var err error
	switch {
	case huffman && decode:
		err = rangecoder.DecompressHuffman(r, w, m)
	case huffman && !decode:
		err = rangecoder.CompressHuffman(r, w, m)
	case !huffman && decode:
		err = rangecoder.Decompress(r, w, m)
	default:
		err = rangecoder.Compress(r, w, m)
	}
	if err != nil {
		if _, ok := err.(*rangecoder.FormatError); ok {
			return err
		}
		return errors.WithStack(err)
	}
	return nil
}

// compress compresses the single file in, writing the result to out, using
// the named model preset.
func compress(in, out, modelName string) error {
	m, err := newModel(modelName)
	if err != nil {
		return err
	}
	inF, err := openIn(in)
	if err != nil {
		return err
	}
	defer inF.Close()
	outF, err := createOut(out)
	if err != nil {
		return err
	}
	defer outF.Close()

	return runPipeline(modelName == model.PresetHuffPrefix, false, inF, outF, m)
}

// decompress decompresses the single file in, writing the result to out,
// using the named model preset. modelName must match what compress was
// called with: nothing in the wire format records it for the plain
// pipeline.
func decompress(in, out, modelName string) error {
	m, err := newModel(modelName)
	if err != nil {
		return err
	}
	inF, err := openIn(in)
	if err != nil {
		return err
	}
	defer inF.Close()
	outF, err := createOut(out)
	if err != nil {
		return err
	}
	defer outF.Close()

	return runPipeline(modelName == model.PresetHuffPrefix, true, inF, outF, m)
}

// testFile compresses in entirely in memory, decompresses that back, and
// reports an error unless the result is byte-identical to the original.
func testFile(in, modelName string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrap(errIO, err.Error())
	}

	mEnc, err := newModel(modelName)
	if err != nil {
		return err
	}
	useHuffman := modelName == model.PresetHuffPrefix

	var compressed bytes.Buffer
	if useHuffman {
		err = rangecoder.CompressHuffman(bytes.NewReader(data), &compressed, mEnc)
	} else {
		err = rangecoder.Compress(bytes.NewReader(data), &compressed, mEnc)
	}
	if err != nil {
		return errors.WithStack(err)
	}

	mDec, err := newModel(modelName)
	if err != nil {
		return err
	}
	var decompressed bytes.Buffer
	if useHuffman {
		err = rangecoder.DecompressHuffman(&compressed, &decompressed, mDec)
	} else {
		err = rangecoder.Decompress(&compressed, &decompressed, mDec)
	}
	if err != nil {
		if _, ok := err.(*rangecoder.FormatError); ok {
			return err
		}
		return errors.WithStack(err)
	}

	if !bytes.Equal(data, decompressed.Bytes()) {
		return errors.Errorf("rc: round trip of %s produced %d bytes, want %d bytes matching the original", in, decompressed.Len(), len(data))
	}
	return nil
}

// eachPath applies op to in directly if it is a regular file, or to every
// regular file directly inside in (shallow, not recursive) if it is a
// directory. Each file gets its own independent (model, coder) pair; no
// state is shared between them. When in is a directory and out is
// non-empty, out is created as a directory and each output path mirrors
// the corresponding input's base name inside it.
func eachPath(in, out string, op func(inFile, outFile string) error) error {
	info, err := os.Stat(in)
	if err != nil {
		return errors.Wrap(errIO, err.Error())
	}
	if !info.IsDir() {
		return op(in, out)
	}

	if out != "" {
		if err := os.MkdirAll(out, 0o755); err != nil {
			return errors.Wrap(errIO, err.Error())
		}
	}
	entries, err := os.ReadDir(in)
	if err != nil {
		return errors.Wrap(errIO, err.Error())
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		inFile := filepath.Join(in, e.Name())
		var outFile string
		if out != "" {
			outFile = filepath.Join(out, e.Name())
		}
		if err := op(inFile, outFile); err != nil {
			return errors.Wrapf(err, "%s", inFile)
		}
	}
	return nil
}

func compressPath(in, out, modelName string) error {
	return eachPath(in, out, func(inFile, outFile string) error {
		return compress(inFile, outFile, modelName)
	})
}

func decompressPath(in, out, modelName string) error {
	return eachPath(in, out, func(inFile, outFile string) error {
		return decompress(inFile, outFile, modelName)
	})
}

func testPath(in, modelName string) error {
	return eachPath(in, "", func(inFile, _ string) error {
		return testFile(inFile, modelName)
	})
}
