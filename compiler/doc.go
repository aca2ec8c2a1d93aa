/*

Process of compilation

Code Listing (toml) ->
	assemble ->
Code Object (bytecode) ->
	interpret ->
Block Graph with Phis (ir) ->
	dominators, dead blocks, phi completion ->
Finished Graph ->
	export ->
Hand-off Form (wire) ->
	type inference, codegen

*/
package compiler
