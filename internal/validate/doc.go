// Package validate runs the post-load checks and assembles the run report.
//
// Six checks run to completion in a fixed order: table existence against
// the CDM table list, primary key spot-checks, foreign key counts, dialect
// cleanliness over the raw DDL sources, datatype convention tallies, and
// row counts for the representative tables. Only missing tables and
// dialect findings fail the verdict; everything else is evidence.
package validate
