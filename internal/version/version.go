package version

// Version is overridden at build time with -ldflags "-X kite/internal/version.Version=...".
var Version = "1.0.4"

// Citation is printed by "kite version --info".
const Citation = `If you use this software, please cite it using this reference:
  Marek Nowicki, Magdalena Mroczek, Dhananjay Mukhedkar, Piotr Bala, Ville Nikolai Pimenoff, Laila Sara Arroyo Muhr,
  HPV-KITE: sequence analysis software for rapid HPV genotype detection,
  Briefings in Bioinformatics, Volume 26, Issue 2, March 2025, bbaf155,
  https://doi.org/10.1093/bib/bbaf155`
