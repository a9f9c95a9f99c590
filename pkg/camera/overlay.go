package camera

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var (
	boxColor    = color.RGBA{0, 255, 0, 0}
	targetColor = color.RGBA{0, 165, 255, 0}
	centerColor = color.RGBA{0, 0, 255, 0}
	textColor   = color.RGBA{255, 255, 255, 0}
)

// Overlay describes what to draw on a preview frame
type Overlay struct {
	Boxes  []image.Rectangle
	Target *image.Point // Selected target center, if any
	Center image.Point  // Frame center
	Label  string       // Mode line
}

// Annotate draws the overlay onto img in place
func Annotate(img *gocv.Mat, o Overlay) {
	for _, b := range o.Boxes {
		gocv.Rectangle(img, b, boxColor, 2)
	}

	// Center cross
	const arm = 10
	gocv.Line(img, image.Pt(o.Center.X-arm, o.Center.Y), image.Pt(o.Center.X+arm, o.Center.Y), centerColor, 2)
	gocv.Line(img, image.Pt(o.Center.X, o.Center.Y-arm), image.Pt(o.Center.X, o.Center.Y+arm), centerColor, 2)

	if o.Target != nil {
		gocv.Circle(img, *o.Target, 6, targetColor, 2)
		gocv.Line(img, o.Center, *o.Target, targetColor, 1)
	}

	if o.Label != "" {
		gocv.PutText(img, o.Label, image.Pt(20, 40), gocv.FontHersheySimplex, 1.0, textColor, 2)
	}
}

// Preview shows annotated frames in a desktop window
type Preview struct {
	window *gocv.Window
}

// NewPreview opens a window with the given title
func NewPreview(title string) *Preview {
	return &Preview{window: gocv.NewWindow(title)}
}

// Show draws o onto the frame and displays it.
// Returns false once the user pressed q or closed the window.
func (p *Preview) Show(f Frame, o Overlay) bool {
	if f.Image == nil {
		return true
	}
	Annotate(f.Image, o)
	p.window.IMShow(*f.Image)
	return p.window.WaitKey(1)&0xFF != 'q'
}

// Close destroys the window
func (p *Preview) Close() error {
	return p.window.Close()
}
