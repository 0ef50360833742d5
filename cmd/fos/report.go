package main

import (
	"fmt"
	"io"
	"math"

	"github.com/pspoerri/fosfix/internal/coord"
	"github.com/pspoerri/fosfix/internal/resection"
)

// writeReport prints the human-readable result.
func writeReport(w io.Writer, res *resection.Result) {
	fmt.Fprintf(w, "FOS (lat, lon): %.6f, %.6f\n", res.FOS.Geo.Lat, res.FOS.Geo.Lon)
	if res.Model == resection.ModelPlanar {
		fmt.Fprintf(w, "FOS (easting, northing): %.2f, %.2f %s\n",
			res.FOS.Grid.Easting, res.FOS.Grid.Northing, res.FOS.Grid.Zone)
	}
	fmt.Fprintf(w, "AFOS distance from A: %.2f m\n", res.DistanceAFOS)
	if res.Angles != nil {
		fmt.Fprintf(w, "Angle A: %.3f°\n", res.Angles.A)
		fmt.Fprintf(w, "Angle B: %.3f°\n", res.Angles.B)
		fmt.Fprintf(w, "Angle at FOS: %.3f°\n", res.Angles.FOS)
	}
	fmt.Fprintf(w, "Bearings used (deg): A→B=%.3f, A→D=%.3f, B→A=%.3f, B→C=%.3f\n",
		res.Bearings.AB, res.Bearings.AD, res.Bearings.BA, res.Bearings.BC)

	label := "grid ref"
	fos, tgt := res.FOS.GridRef, res.Target.GridRef
	if res.System == coord.SystemUTM && res.FOS.MGRS != "" {
		label = "MGRS"
		fos, tgt = res.FOS.MGRS, res.Target.MGRS
	}
	figures := 2 * res.Precision
	fmt.Fprintf(w, "FOS %s (%d-figure): %s\n", label, figures, fos)
	fmt.Fprintf(w, "Target %s (%d-figure): %s\n", label, figures, tgt)

	fmt.Fprintf(w, "Correction: %s %.2f m, %s %.2f m\n",
		res.Correction.NorthDirection, math.Abs(res.Correction.North),
		res.Correction.EastDirection, math.Abs(res.Correction.East))

	fmt.Fprintf(w, "\n%-6s %12s %10s %12s\n", "Point", "From FOS (m)", "Bearing", "Back bearing")
	for _, e := range res.Report.Entries {
		fmt.Fprintf(w, "%-6s %12.2f %10.3f %12.3f\n", e.Role, e.Distance, e.Bearing, e.BackBearing)
	}
}
