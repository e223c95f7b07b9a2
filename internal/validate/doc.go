// Package validate runs generated driver headers through the staged
// validation pipeline: compiler syntax check, semantic cross-check against
// the imported register maps, full compilation of a synthesized
// translation unit, and emission of a static-assert companion test.
package validate
