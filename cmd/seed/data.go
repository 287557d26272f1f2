package main

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
)

type seedFolder struct {
	Key       string
	Name      string
	ParentKey string // "" = root
	Color     *string
	Favorite  bool
}

type seedDocument struct {
	Title     string
	FolderKey string // "" = root
	OCRText   *string
	Tags      []string
	Favorite  bool
	Tint      color.RGBA // thumbnail colour
}

type seedTag struct {
	Name  string
	Color string
}

var seedTags = []seedTag{
	{Name: "Tax", Color: "#FFE53935"},
	{Name: "Work", Color: "#FF1E88E5"},
	{Name: "Personal", Color: "#FF43A047"},
}

func getSeedFolders() []seedFolder {
	return []seedFolder{
		{Key: "receipts", Name: "Receipts", Color: stringPtr("#FF9800")},
		{Key: "contracts", Name: "Contracts", Color: stringPtr("#3F51B5"), Favorite: true},
		{Key: "contracts-2024", Name: "2024", ParentKey: "contracts"},
		{Key: "medical", Name: "Medical", Color: stringPtr("#E91E63")},
	}
}

func getSeedDocuments() []seedDocument {
	return []seedDocument{
		{
			Title:     "Grocery receipt",
			FolderKey: "receipts",
			OCRText:   stringPtr("FRESH MARKET\nMilk 1.29\nBread 2.49\nTOTAL 3.78\nPaid by card ending 4242"),
			Tint:      color.RGBA{R: 250, G: 240, B: 220, A: 255},
		},
		{
			Title:     "Hardware store receipt",
			FolderKey: "receipts",
			OCRText:   stringPtr("Screws x40 4.99\nDrill bits 12.50\nTOTAL 17.49"),
			Tags:      []string{"Tax"},
			Tint:      color.RGBA{R: 245, G: 245, B: 245, A: 255},
		},
		{
			Title:     "Apartment lease",
			FolderKey: "contracts",
			OCRText:   stringPtr("RESIDENTIAL LEASE AGREEMENT\nTenant agrees to pay rent monthly to IBAN DE89 3704 0044 0532 0130 00"),
			Tags:      []string{"Personal"},
			Favorite:  true,
			Tint:      color.RGBA{R: 230, G: 236, B: 255, A: 255},
		},
		{
			Title:     "Employment contract",
			FolderKey: "contracts-2024",
			OCRText:   stringPtr("EMPLOYMENT AGREEMENT\nStart date: 2024-03-01\nContact: hr@example.com"),
			Tags:      []string{"Work", "Tax"},
			Tint:      color.RGBA{R: 235, G: 250, B: 235, A: 255},
		},
		{
			Title:     "NDA",
			FolderKey: "contracts-2024",
			Tags:      []string{"Work"},
			Tint:      color.RGBA{R: 255, G: 250, B: 230, A: 255},
		},
		{
			Title:     "Vaccination record",
			FolderKey: "medical",
			OCRText:   stringPtr("Patient DOB 1990-04-12\nSSN 123-45-6789\nDose 2 administered"),
			Tags:      []string{"Personal"},
			Tint:      color.RGBA{R: 255, G: 235, B: 240, A: 255},
		},
		{
			Title:    "Parking ticket",
			OCRText:  stringPtr("CITATION 88213\nAmount due 35.00"),
			Favorite: true,
			Tint:     color.RGBA{R: 255, G: 255, B: 210, A: 255},
		},
		{
			Title: "Whiteboard notes",
			Tint:  color.RGBA{R: 250, G: 250, B: 250, A: 255},
		},
	}
}

var seedSignatures = []struct {
	Label     string
	IsDefault bool
}{
	{Label: "Full signature", IsDefault: true},
	{Label: "Initials"},
}

// documentContent returns the stored scan for a seed document
func documentContent(doc seedDocument) []byte {
	var buf bytes.Buffer
	buf.WriteString(doc.Title)
	buf.WriteString("\n\n")
	if doc.OCRText != nil {
		buf.WriteString(*doc.OCRText)
	}
	return buf.Bytes()
}

// thumbnail renders a flat card in tint with a darker header band
func thumbnail(tint color.RGBA) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 160))
	header := color.RGBA{R: tint.R / 2, G: tint.G / 2, B: tint.B / 2, A: 255}
	for y := range 160 {
		for x := range 120 {
			if y < 24 {
				img.Set(x, y, header)
			} else {
				img.Set(x, y, tint)
			}
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// signatureImage draws a diagonal stroke on a transparent canvas
func signatureImage(slope int) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 80))
	ink := color.NRGBA{R: 20, G: 30, B: 90, A: 255}
	for x := range 200 {
		y := 60 - (x*slope)/40
		for dy := range 3 {
			if yy := y + dy; yy >= 0 && yy < 80 {
				img.Set(x, yy, ink)
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func stringPtr(s string) *string {
	return &s
}
