// pkg/core/viewport.go
package core

// ViewportTransform is the camera applied to the whole map surface.
// Screen coordinates are content*Scale + Translate.
type ViewportTransform struct {
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
	Scale      float64 `json:"scale"`
}
