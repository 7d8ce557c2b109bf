package main

import (
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"

	"github.com/devblok/trident/utility/kar"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil && u.Name != "" {
		currentUserName = u.Name
	}
}

var currentUserName string

var (
	author   = flag.String("author", "", "Set the author of the package when compressing")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the given archive into the -o directory")
	compress = flag.String("c", "", "Compress the given file/folder")
	list     = flag.String("l", "", "List the files in the given archive")
	dstFile  = flag.String("f", "out.kar", "Destination file")
	outDir   = flag.String("o", ".", "Destination directory when extracting")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	ops := 0
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}

	var err error
	switch {
	case ops > 1:
		err = errors.New("only one operation at a time")
	case *compress != "":
		err = compressFiles(*compress, *dstFile)
	case *extract != "":
		err = extractFiles(*extract, *outDir)
	case *list != "":
		err = listFiles(*list)
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func compressFiles(source, destination string) error {
	if _, err := os.Stat(destination); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	if err := filepath.Walk(source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	}); err != nil {
		return err
	}

	name := *author
	if name == "" {
		name = currentUserName
	}
	karBuilder, err := kar.NewBuilder(kar.Header{
		Author:      name,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}
	defer karBuilder.Close()

	for _, ftc := range filesToCompress {
		// names are relative to the source so loaders can find them by file name
		rel, err := filepath.Rel(source, ftc)
		if err != nil || rel == "." {
			rel = filepath.Base(ftc)
		}
		if err := karBuilder.AddFile(filepath.ToSlash(rel), ftc); err != nil {
			return err
		}
		log.WithField("file", rel).Debug("added")
	}

	dst, err := os.Create(destination)
	if err != nil {
		return err
	}
	n, err := karBuilder.WriteTo(dst)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(destination)
		return err
	}

	log.WithFields(log.Fields{
		"archive": destination,
		"files":   karBuilder.Len(),
		"bytes":   n,
	}).Info("archive written")
	return nil
}

func openArchive(path string) (*kar.Archive, *mmap.ReaderAt, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, nil, err
	}
	archive, err := kar.Open(r)
	if err != nil {
		r.Close()
		return nil, nil, fmt.Errorf("%s: %s", path, err.Error())
	}
	return archive, r, nil
}

func listFiles(path string) error {
	archive, r, err := openArchive(path)
	if err != nil {
		return err
	}
	defer r.Close()

	header := archive.Header()
	if !*silent {
		fmt.Printf("author: %s, version: %d, created: %s\n",
			header.Author, header.Version, time.Unix(header.DateCreated, 0).Format(time.RFC3339))
	}
	for _, e := range header.Index {
		fmt.Printf("%10d %10d %s\n", e.Size, e.CompressedSize, e.Name)
	}
	return nil
}

func extractFiles(path, destination string) error {
	archive, r, err := openArchive(path)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, name := range archive.Files() {
		target := filepath.Join(destination, filepath.FromSlash(name))
		if rel, err := filepath.Rel(destination, target); err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("refusing to extract %s outside of %s", name, destination)
		}

		data, err := archive.ReadAll(name)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := ioutil.WriteFile(target, data, 0644); err != nil {
			return err
		}
		log.WithField("file", target).Debug("extracted")
	}
	log.WithField("files", len(archive.Files())).Info("archive extracted")
	return nil
}
