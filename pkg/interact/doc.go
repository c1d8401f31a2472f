// Package interact holds the pointer-interaction primitives of the viewer:
// the zoom/pan transform, the drag state machine, hover highlighting and the
// click-to-focus tween.
//
// None of these own simulation state. [Drag] pins and unpins nodes of the
// simulation it is handed; [Transform] and [Focus] only change how
// simulation coordinates map to the screen.
//
//	screen = sim * K + (X, Y)
package interact
