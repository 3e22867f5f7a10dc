// Package kml parses and emits the KML subset the engine needs (spec.md
// §4.4, component C4): a multi-polygon search area as one or more
// <Polygon><outerBoundaryIs> rings, with lon,lat[,alt] coordinate triples.
//
// No KML encoding/decoding library appears anywhere in the reference
// corpus, so this package is hand-rolled on top of the standard library's
// encoding/xml, the way most Go services handle one-off XML formats when no
// ecosystem parser fits the exact dialect in use.
package kml

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lbsproxaudit/discovery-engine/internal/pkg/apperr"
	"github.com/lbsproxaudit/discovery-engine/internal/projection"
	"github.com/paulmach/orb"
)

type kmlRoot struct {
	XMLName  xml.Name    `xml:"kml"`
	Document kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Polygon kmlPolygon `xml:"Polygon"`
}

type kmlPolygon struct {
	Outer kmlBoundary  `xml:"outerBoundaryIs"`
	Inner []kmlBoundary `xml:"innerBoundaryIs"`
}

type kmlBoundary struct {
	Coordinates string `xml:"LinearRing>coordinates"`
}

// Parse reads a KML document from path and forward-projects the <Polygon>
// of every <Placemark> that is a direct child of <Document> into a
// MultiPolygon (spec.md §4.4). Polygons inside <Folder> or <MultiGeometry>
// elements are not read. A missing file is a fatal configuration error.
func Parse(path string, proj projection.Projection) (orb.MultiPolygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.ErrSearchAreaMissing.WithDetails(map[string]interface{}{"path": path, "cause": err.Error()})
	}

	var root kmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, apperr.ErrSearchAreaMissing.WithDetails(map[string]interface{}{"path": path, "cause": err.Error()})
	}

	var mp orb.MultiPolygon
	for _, pm := range root.Document.Placemarks {
		outer, err := parseRing(pm.Polygon.Outer.Coordinates, proj)
		if err != nil {
			return nil, apperr.ErrSearchAreaMissing.WithDetails(map[string]interface{}{"path": path, "cause": err.Error()})
		}
		poly := orb.Polygon{outer}
		for _, inner := range pm.Polygon.Inner {
			hole, err := parseRing(inner.Coordinates, proj)
			if err != nil {
				return nil, apperr.ErrSearchAreaMissing.WithDetails(map[string]interface{}{"path": path, "cause": err.Error()})
			}
			poly = append(poly, hole)
		}
		mp = append(mp, poly)
	}

	if len(mp) == 0 {
		return nil, apperr.ErrSearchAreaMissing.WithDetails(map[string]interface{}{"path": path, "cause": "no polygons found"})
	}

	return mp, nil
}

// parseRing splits a whitespace-separated list of "lon,lat[,alt]" triples
// and forward-projects each into the plane. The z coordinate, if present,
// is ignored.
func parseRing(coordinates string, proj projection.Projection) (orb.Ring, error) {
	fields := strings.Fields(strings.TrimSpace(coordinates))
	ring := make(orb.Ring, 0, len(fields))
	for _, f := range fields {
		parts := strings.Split(f, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("malformed coordinate triple %q", f)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("bad longitude %q: %w", parts[0], err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad latitude %q: %w", parts[1], err)
		}
		x, y := proj.Forward(lon, lat)
		ring = append(ring, orb.Point{x, y})
	}
	return ring, nil
}

// Emit serializes mp back to KML, inverse-projecting every coordinate
// (including holes), and returns the bytes written. If path is non-empty the
// bytes are also written to disk (spec.md §4.4 emit()).
func Emit(mp orb.MultiPolygon, proj projection.Projection, path string) ([]byte, error) {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	sb.WriteString("<kml xmlns=\"http://www.opengis.net/kml/2.2\">\n  <Document>\n")

	for _, poly := range mp {
		if len(poly) == 0 {
			continue
		}
		sb.WriteString("    <Placemark>\n      <Polygon>\n")
		writeBoundary(&sb, "outerBoundaryIs", poly[0], proj)
		for _, hole := range poly[1:] {
			writeBoundary(&sb, "innerBoundaryIs", hole, proj)
		}
		sb.WriteString("      </Polygon>\n    </Placemark>\n")
	}

	sb.WriteString("  </Document>\n</kml>\n")
	out := []byte(sb.String())

	if path != "" {
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return nil, fmt.Errorf("writing kml snapshot %s: %w", path, err)
		}
	}
	return out, nil
}

func writeBoundary(sb *strings.Builder, tag string, ring orb.Ring, proj projection.Projection) {
	fmt.Fprintf(sb, "        <%s>\n          <LinearRing>\n            <coordinates>\n              ", tag)
	for _, p := range ring {
		lon, lat := proj.Inverse(p[0], p[1])
		fmt.Fprintf(sb, "%g,%g ", lon, lat)
	}
	// KML linear rings must be explicitly closed even though orb.Ring is not.
	if len(ring) > 0 {
		lon, lat := proj.Inverse(ring[0][0], ring[0][1])
		fmt.Fprintf(sb, "%g,%g", lon, lat)
	}
	fmt.Fprintf(sb, "\n            </coordinates>\n          </LinearRing>\n        </%s>\n", tag)
}
