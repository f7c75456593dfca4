// Package label splits spatial-domain objects into connected components.
//
// A planar object is labeled in one top-to-bottom sweep over its intervals.
// Two intervals on adjacent lines belong to the same component when their
// column ranges overlap (4 connectivity) or overlap once widened by one
// column (8 connectivity). Intervals on the same line never touch because
// lines are normalized.
//
// Volumes are labeled plane by plane with the in-plane connectivity implied
// by the volumetric one, then fragments on adjacent planes are merged:
//
//	6   in-plane 4, fragments on adjacent planes must overlap directly
//	18  in-plane 8, overlap after a 4-connected dilation
//	26  in-plane 8, overlap after an 8-connected dilation
//
// # Example Usage
//
//	res, err := label.Label(obj, label.Options{
//		Connectivity: domain.Conn8,
//		MinLines:     2,
//		MaxCount:     1000,
//	})
//	if err != nil {
//		return err
//	}
//	defer res.Free()
//	for i, comp := range res.Objects {
//		fmt.Printf("component %d: %d pixels\n", i, comp.Size())
//	}
package label
