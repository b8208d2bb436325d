// Package gallery synthesises the demo image lists behind /api/gallery and
// /api/jenna. Output is random on purpose; only its shape is stable.
package gallery

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/parsascontentcorner/guildproxy/internal/models"
)

const (
	GallerySize = 12
	JennaSize   = 16

	unsplashURLFormat = "https://images.unsplash.com/photo-%s?w=400&h=400&fit=crop"
)

var galleryPhotoIDs = []string{
	"1517841905240-472988babdf9",
	"1506794778202-cad84cf45f1d",
	"1494790108755-2616b612b786",
	"1534528741775-53994a69daeb",
	"1544005313-94ddf0286df2",
}

var jennaPhotoIDs = []string{
	"1534528741775-53994a69daeb",
	"1544005313-94ddf0286df2",
	"1487412720507-e7ab37603c6f",
	"1507003211169-0a1dd7228f2d",
	"1472041578835-bc7b1b325718",
	"1511791071-7c440d765e4a",
}

var jennaAlts = []string{"Red Carpet", "Casual", "Event", "Behind Scenes", "Portrait", "Candid"}

// Generator draws demo images from a fixed pool.
// *rand.Rand is not safe for concurrent use, hence the mutex.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// NewGenerator seeds from the current time
func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano(), time.Now)
}

// NewSeededGenerator returns a reproducible generator for tests
func NewSeededGenerator(seed int64, now func() time.Time) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(seed)),
		now: now,
	}
}

// Gallery returns GallerySize fan images stamped with the current time
func (g *Generator) Gallery() *models.GalleryList {
	g.mu.Lock()
	defer g.mu.Unlock()

	uploadedAt := g.now()
	images := make([]models.GalleryImage, GallerySize)
	for i := range images {
		images[i] = models.GalleryImage{
			URL:        photoURL(g.pick(galleryPhotoIDs)),
			Uploader:   fmt.Sprintf("fan_%d", 100+g.rnd.Intn(900)),
			UploadedAt: uploadedAt,
		}
	}
	return &models.GalleryList{Images: images}
}

// Jenna returns JennaSize images with a random caption each
func (g *Generator) Jenna() *models.JennaList {
	g.mu.Lock()
	defer g.mu.Unlock()

	images := make([]models.JennaImage, JennaSize)
	for i := range images {
		images[i] = models.JennaImage{
			URL: photoURL(g.pick(jennaPhotoIDs)),
			Alt: g.pick(jennaAlts),
		}
	}
	return &models.JennaList{Images: images}
}

func (g *Generator) pick(pool []string) string {
	return pool[g.rnd.Intn(len(pool))]
}

func photoURL(id string) string {
	return fmt.Sprintf(unsplashURLFormat, id)
}
